package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/kds"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/router"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// testApp is the whole HTTP stack over an in-memory SQLite database.
type testApp struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Ledger    *services.Ledger
	Catalog   *services.Catalog
	Customers *services.CustomerDirectory
	Orders    *services.OrderService
}

// setupTestDB menggunakan SQLite in-memory untuk testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db := setupTestDB(t)
	ledger, err := services.NewLedger(ctx, database.NewGormCollection[models.Ingredient](db, database.IngredientsCollection))
	require.NoError(t, err)
	catalog := services.NewCatalog(db, ledger)
	customers := services.NewCustomerDirectory(db)
	hub := kds.NewHub()
	orders, err := services.NewOrderService(ctx, database.NewGormCollection[models.Order](db, database.OrdersCollection),
		ledger, catalog, customers, services.OrderOptions{Notifier: hub})
	require.NoError(t, err)

	r := router.SetupRouter(router.Dependencies{
		DB:                db,
		Orders:            orders,
		Ledger:            ledger,
		Catalog:           catalog,
		Customers:         customers,
		Hub:               hub,
		Pricing:           models.PricingBaseTimesSize,
		LowStockThreshold: 5,
	})

	return &testApp{DB: db, Router: r, Ledger: ledger, Catalog: catalog, Customers: customers, Orders: orders}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

// tokenFor issues a token without going through /login.
func tokenFor(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

// seedPizzeria registers cheese, a margherita that needs 2 per pizza, a soda and a customer.
func (a *testApp) seedPizzeria(t *testing.T, cheeseStock int) (customerID, pizzaID, sodaID, cheeseID uint) {
	t.Helper()
	ctx := context.Background()

	cheese, err := a.Ledger.Register(ctx, "Cheese", decimal.RequireFromString("3.00"), cheeseStock)
	require.NoError(t, err)
	pizza, err := a.Catalog.Create(ctx, models.MenuItem{
		Kind:      models.KindComposite,
		Name:      "Margherita",
		BasePrice: decimal.RequireFromString("30.00"),
		Size:      models.SizeMedium,
		Portions:  []models.Portion{{IngredientID: cheese.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	soda, err := a.Catalog.Create(ctx, models.MenuItem{Kind: models.KindSimple, Name: "Guarana", FixedPrice: decimal.RequireFromString("6.00"), VolumeML: 350})
	require.NoError(t, err)
	customer, err := a.Customers.Create(ctx, models.Customer{
		Name:    "Ana",
		Phone:   "81 99999-0000",
		Address: models.Address{Street: "Rua das Flores", Number: "100", District: "Centro", City: "Recife", PostalCode: "50000-000"},
	})
	require.NoError(t, err)
	return customer.ID, pizza.ID, soda.ID, cheese.ID
}
