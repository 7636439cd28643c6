package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

type CustomerController struct {
	Customers *services.CustomerDirectory
}

func NewCustomerController(customers *services.CustomerDirectory) *CustomerController {
	return &CustomerController{Customers: customers}
}

type customerRequest struct {
	Name    string         `json:"name" binding:"required"`
	Phone   string         `json:"phone" binding:"required"`
	Address models.Address `json:"address"`
}

// GetAllCustomers -> ?name= untuk cari pelanggan
func (cc *CustomerController) GetAllCustomers(c *gin.Context) {
	customers, err := cc.Customers.List(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", customers)
}

// CreateCustomer -> daftar pelanggan baru (nomor telepon unik)
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var body customerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	customer, err := cc.Customers.Create(c.Request.Context(), models.Customer{
		Name:    body.Name,
		Phone:   body.Phone,
		Address: body.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Customer created", customer)
}

func (cc *CustomerController) GetCustomerByID(c *gin.Context) {
	id, ok := paramID(c, "customer_id")
	if !ok {
		return
	}
	customer, err := cc.Customers.ResolveCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer detail", customer)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id, ok := paramID(c, "customer_id")
	if !ok {
		return
	}
	var body customerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	customer, err := cc.Customers.Update(c.Request.Context(), id, models.Customer{
		Name:    body.Name,
		Phone:   body.Phone,
		Address: body.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer updated", customer)
}
