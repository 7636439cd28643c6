package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// StockNotifier is told when an ingredient is created, edited or restocked.
type StockNotifier interface {
	StockUpdated(item models.Ingredient)
}

type IngredientController struct {
	Ledger            *services.Ledger
	Notifier          StockNotifier
	LowStockThreshold int
}

func NewIngredientController(ledger *services.Ledger, notifier StockNotifier, lowStockThreshold int) *IngredientController {
	return &IngredientController{Ledger: ledger, Notifier: notifier, LowStockThreshold: lowStockThreshold}
}

type ingredientRequest struct {
	Name       string          `json:"name" binding:"required"`
	AddOnPrice decimal.Decimal `json:"add_on_price"`
	Stock      int             `json:"stock"`
}

// GetAllIngredients -> ?available=true hanya yang masih ada stok, ?name= untuk cari nama
func (ic *IngredientController) GetAllIngredients(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		utils.RespondJSON(c, http.StatusOK, "Ingredients matching name", ic.Ledger.Search(name))
		return
	}
	if c.Query("available") == "true" {
		utils.RespondJSON(c, http.StatusOK, "Available ingredients", ic.Ledger.ListAvailable())
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of ingredients", ic.Ledger.List())
}

func (ic *IngredientController) GetIngredient(c *gin.Context) {
	id, ok := paramID(c, "ingredient_id")
	if !ok {
		return
	}
	ing, err := ic.Ledger.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient detail", ing)
}

func (ic *IngredientController) CreateIngredient(c *gin.Context) {
	var body ingredientRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	ing, err := ic.Ledger.Register(c.Request.Context(), body.Name, body.AddOnPrice, body.Stock)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ic.notify(ing)
	utils.RespondJSON(c, http.StatusCreated, "Ingredient created", ing)
}

// UpdateIngredient -> ubah nama/harga tambahan, stok tidak berubah
func (ic *IngredientController) UpdateIngredient(c *gin.Context) {
	id, ok := paramID(c, "ingredient_id")
	if !ok {
		return
	}
	var body ingredientRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	ing, err := ic.Ledger.UpdateDetails(c.Request.Context(), id, body.Name, body.AddOnPrice)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ic.notify(ing)
	utils.RespondJSON(c, http.StatusOK, "Ingredient updated", ing)
}

func (ic *IngredientController) Restock(c *gin.Context) {
	id, ok := paramID(c, "ingredient_id")
	if !ok {
		return
	}
	var body struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := ic.Ledger.Restock(c.Request.Context(), id, body.Quantity); err != nil {
		respondServiceError(c, err)
		return
	}
	ing, err := ic.Ledger.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ic.notify(ing)
	utils.RespondJSON(c, http.StatusOK, "Ingredient restocked", ing)
}

func (ic *IngredientController) GetOutOfStock(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Out of stock ingredients", ic.Ledger.ListOutOfStock())
}

// GetLowStock -> ?threshold= untuk mengganti batas default
func (ic *IngredientController) GetLowStock(c *gin.Context) {
	threshold := ic.LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidQuantity)
			return
		}
		threshold = n
	}
	utils.RespondJSON(c, http.StatusOK, "Low stock ingredients", ic.Ledger.ListBelow(threshold))
}

func (ic *IngredientController) notify(ing models.Ingredient) {
	if ic.Notifier != nil {
		ic.Notifier.StockUpdated(ing)
	}
}
