package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> order baru berstatus PENDING
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body services.CreateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// ListOrders -> semua order, atau difilter dengan ?status=
func (oc *OrderController) ListOrders(c *gin.Context) {
	raw := c.Query("status")
	if raw == "" {
		utils.RespondJSON(c, http.StatusOK, "List of orders", oc.Orders.List())
		return
	}
	status, err := models.ParseOrderStatus(raw)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", oc.Orders.ListByStatus(status))
}

func (oc *OrderController) ListToday(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Orders of today", oc.Orders.ListToday())
}

func (oc *OrderController) ListByCustomer(c *gin.Context) {
	id, ok := paramID(c, "customer_id")
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer orders", oc.Orders.ListByCustomer(id))
}

// UpdateStatus -> PATCH /admin/orders/:order_id/status {"status": "IN_PREPARATION"}
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	status, err := models.ParseOrderStatus(body.Status)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.AdvanceStatus(c.Request.Context(), id, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

// AddItem -> tambah item ke order PENDING
func (oc *OrderController) AddItem(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body services.LineRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := oc.Orders.AddLine(c.Request.Context(), id, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added", order)
}

func (oc *OrderController) RemoveItem(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	order, err := oc.Orders.RemoveLine(c.Request.Context(), id, itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", order)
}

func (oc *OrderController) Reprice(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.RepriceOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order repriced", order)
}
