package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

type MenuController struct {
	Catalog *services.Catalog
	Pricing models.PricingPolicy
	Ledger  *services.Ledger
}

func NewMenuController(catalog *services.Catalog, ledger *services.Ledger, pricing models.PricingPolicy) *MenuController {
	return &MenuController{Catalog: catalog, Ledger: ledger, Pricing: pricing}
}

// menuEntry is a menu item together with the price an order would pay for it now.
type menuEntry struct {
	models.MenuItem
	Price string `json:"price"`
}

func (mc *MenuController) entry(item models.MenuItem) menuEntry {
	price := models.Price(item, mc.Pricing, mc.Ledger.AddOnPrices())
	return menuEntry{MenuItem: item, Price: price.StringFixed(2)}
}

// GetAllMenus -> ?kind=composite|simple, ?name= untuk cari nama
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	kind := models.ItemKind(c.Query("kind"))
	if kind != "" && kind != models.KindComposite && kind != models.KindSimple {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown kind %q", kind))
		return
	}
	items, err := mc.Catalog.List(c.Request.Context(), kind, c.Query("name"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	entries := make([]menuEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, mc.entry(item))
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", entries)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	item, err := mc.Catalog.ResolveItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", mc.entry(item))
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var body models.MenuItem
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	item, err := mc.Catalog.Create(c.Request.Context(), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", mc.entry(item))
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	var body models.MenuItem
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	item, err := mc.Catalog.Update(c.Request.Context(), id, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", mc.entry(item))
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	if err := mc.Catalog.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}
