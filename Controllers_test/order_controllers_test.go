package Controllers_test

import (
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/pizzeria-app/models"
)

func TestCreateAndGetOrder(t *testing.T) {
	app := setupApp(t)
	customerID, pizzaID, sodaID, _ := app.seedPizzeria(t, 10)

	w, env := app.do(t, http.MethodPost, "/orders", "", gin.H{
		"customer_id": customerID,
		"items": []gin.H{
			{"item_id": pizzaID, "quantity": 2},
			{"item_id": sodaID, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Status)

	var order models.Order
	decode(t, env.Data, &order)
	assert.Equal(t, models.StatusPending, order.Status)
	// 30 x 1.5 x 2 + 6
	assert.True(t, order.Total.Equal(decimal.RequireFromString("96.00")), order.Total.String())

	w, env = app.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.Order
	decode(t, env.Data, &fetched)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Len(t, fetched.Lines, 2)

	w, _ = app.do(t, http.MethodGet, "/orders/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = app.do(t, http.MethodGet, "/orders/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderErrors(t *testing.T) {
	app := setupApp(t)
	customerID, pizzaID, _, _ := app.seedPizzeria(t, 3)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"insufficient stock", gin.H{"customer_id": customerID, "items": []gin.H{{"item_id": pizzaID, "quantity": 2}}}, http.StatusConflict},
		{"unknown item", gin.H{"customer_id": customerID, "items": []gin.H{{"item_id": 999, "quantity": 1}}}, http.StatusNotFound},
		{"unknown customer", gin.H{"customer_id": 999, "items": []gin.H{{"item_id": pizzaID, "quantity": 1}}}, http.StatusNotFound},
		{"empty order", gin.H{"customer_id": customerID, "items": []gin.H{}}, http.StatusBadRequest},
		{"negative quantity", gin.H{"customer_id": customerID, "items": []gin.H{{"item_id": pizzaID, "quantity": -1}}}, http.StatusBadRequest},
		{"huge quantity", gin.H{"customer_id": customerID, "items": []gin.H{{"item_id": pizzaID, "quantity": 1 << 62}}}, http.StatusBadRequest},
		{"missing customer", gin.H{"items": []gin.H{{"item_id": pizzaID, "quantity": 1}}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := app.do(t, http.MethodPost, "/orders", "", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.False(t, env.Status)
		})
	}
	assert.Empty(t, app.Orders.List())
}

func TestUpdateOrderStatus(t *testing.T) {
	app := setupApp(t)
	customerID, pizzaID, _, cheeseID := app.seedPizzeria(t, 5)
	chef := tokenFor(t, 2, models.RoleChef)

	_, env := app.do(t, http.MethodPost, "/orders", "", gin.H{
		"customer_id": customerID,
		"items":       []gin.H{{"item_id": pizzaID, "quantity": 1}},
	})
	var order models.Order
	decode(t, env.Data, &order)
	statusURL := fmt.Sprintf("/admin/orders/%d/status", order.ID)

	w, _ := app.do(t, http.MethodPatch, statusURL, "", gin.H{"status": "IN_PREPARATION"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.do(t, http.MethodPatch, statusURL, chef, gin.H{"status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = app.do(t, http.MethodPatch, statusURL, chef, gin.H{"status": "in-preparation"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, env.Data, &order)
	assert.Equal(t, models.StatusInPreparation, order.Status)

	cheese, err := app.Ledger.Get(cheeseID)
	require.NoError(t, err)
	assert.Equal(t, 3, cheese.Stock)

	w, _ = app.do(t, http.MethodPatch, statusURL, chef, gin.H{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = app.do(t, http.MethodPatch, statusURL, chef, gin.H{"status": "CONCLUDED"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = app.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/cancel", order.ID), "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Message, "CONCLUDED")
}

func TestConfirmationConflictKeepsOrderPending(t *testing.T) {
	app := setupApp(t)
	customerID, pizzaID, _, cheeseID := app.seedPizzeria(t, 2)
	staff := tokenFor(t, 3, models.RoleStaff)

	var ids []uint
	for i := 0; i < 2; i++ {
		w, env := app.do(t, http.MethodPost, "/orders", "", gin.H{
			"customer_id": customerID,
			"items":       []gin.H{{"item_id": pizzaID, "quantity": 1}},
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var o models.Order
		decode(t, env.Data, &o)
		ids = append(ids, o.ID)
	}

	w, _ := app.do(t, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", ids[0]), staff, gin.H{"status": "IN_PREPARATION"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := app.do(t, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", ids[1]), staff, gin.H{"status": "IN_PREPARATION"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Message, "Cheese")

	second, err := app.Orders.Get(ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, second.Status)
	cheese, err := app.Ledger.Get(cheeseID)
	require.NoError(t, err)
	assert.Equal(t, 0, cheese.Stock)
}

func TestModifyOrderItems(t *testing.T) {
	app := setupApp(t)
	customerID, pizzaID, sodaID, _ := app.seedPizzeria(t, 10)

	_, env := app.do(t, http.MethodPost, "/orders", "", gin.H{
		"customer_id": customerID,
		"items":       []gin.H{{"item_id": pizzaID, "quantity": 1}},
	})
	var order models.Order
	decode(t, env.Data, &order)

	w, env := app.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/items", order.ID), "", gin.H{"item_id": sodaID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, env.Data, &order)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("57.00")), order.Total.String())

	w, env = app.do(t, http.MethodDelete, fmt.Sprintf("/orders/%d/items/%d", order.ID, sodaID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.Data, &order)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("45.00")), order.Total.String())

	w, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/orders/%d/items/%d", order.ID, sodaID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/items", order.ID), "", gin.H{"item_id": pizzaID, "quantity": 10})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = app.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/items", order.ID), "", gin.H{"item_id": pizzaID, "quantity": math.MaxInt64})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrdersAdmin(t *testing.T) {
	app := setupApp(t)
	customerID, pizzaID, _, _ := app.seedPizzeria(t, 10)
	staff := tokenFor(t, 3, models.RoleStaff)

	for i := 0; i < 3; i++ {
		w, _ := app.do(t, http.MethodPost, "/orders", "", gin.H{
			"customer_id": customerID,
			"items":       []gin.H{{"item_id": pizzaID, "quantity": 1}},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, _ := app.do(t, http.MethodPost, "/orders/1/cancel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var orders []models.Order
	w, env := app.do(t, http.MethodGet, "/admin/orders?status=pending", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.Data, &orders)
	assert.Len(t, orders, 2)

	w, env = app.do(t, http.MethodGet, "/admin/orders/today", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.Data, &orders)
	assert.Len(t, orders, 3)

	w, env = app.do(t, http.MethodGet, fmt.Sprintf("/customers/%d/orders", customerID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.Data, &orders)
	assert.Len(t, orders, 3)

	w, _ = app.do(t, http.MethodGet, "/admin/orders?status=lost", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRepriceRequiresStaff(t *testing.T) {
	app := setupApp(t)
	customerID, pizzaID, _, _ := app.seedPizzeria(t, 10)

	_, env := app.do(t, http.MethodPost, "/orders", "", gin.H{
		"customer_id": customerID,
		"items":       []gin.H{{"item_id": pizzaID, "quantity": 1}},
	})
	var order models.Order
	decode(t, env.Data, &order)
	url := fmt.Sprintf("/admin/orders/%d/reprice", order.ID)

	w, _ := app.do(t, http.MethodPost, url, tokenFor(t, 2, models.RoleChef), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodPost, url, tokenFor(t, 1, models.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
