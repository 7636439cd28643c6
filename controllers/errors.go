package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// statusFor maps service errors to HTTP status codes. Storage and unknown
// errors are 500.
func statusFor(err error) int {
	var (
		stockErr      *services.InsufficientStockError
		stateErr      *services.InvalidOrderStateError
		transitionErr *services.IllegalTransitionError
	)
	switch {
	case errors.As(err, &stockErr),
		errors.As(err, &stateErr),
		errors.As(err, &transitionErr),
		errors.Is(err, services.ErrDuplicateIngredient),
		errors.Is(err, services.ErrDuplicateCustomer),
		errors.Is(err, services.ErrDuplicateMenuItem):
		return http.StatusConflict
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrIngredientNotFound),
		errors.Is(err, services.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidMenuItem),
		errors.Is(err, services.ErrInvalidIngredient),
		errors.Is(err, services.ErrInvalidCustomer):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondServiceError(c *gin.Context, err error) {
	utils.RespondError(c, statusFor(err), err)
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}
