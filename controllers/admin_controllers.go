package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

type AdminController struct {
	Orders            *services.OrderService
	Ledger            *services.Ledger
	LowStockThreshold int
}

func NewAdminController(orders *services.OrderService, ledger *services.Ledger, lowStockThreshold int) *AdminController {
	return &AdminController{Orders: orders, Ledger: ledger, LowStockThreshold: lowStockThreshold}
}

// GetDashboardStats mengambil statistik untuk dashboard
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats := ac.Orders.Stats()

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"orders":              stats,
		"summary":             stats.Summary(),
		"revenue_today_brl":   utils.FormatCurrencyBRL(stats.RevenueToday),
		"revenue_total_brl":   utils.FormatCurrencyBRL(stats.RevenueTotal),
		"out_of_stock":        ac.Ledger.ListOutOfStock(),
		"low_stock":           ac.Ledger.ListBelow(ac.LowStockThreshold),
		"low_stock_threshold": ac.LowStockThreshold,
	})
}
