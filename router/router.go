package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pizzeria-app/controllers"
	"github.com/yeremiapane/pizzeria-app/kds"
	"github.com/yeremiapane/pizzeria-app/middlewares"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB        *gorm.DB
	Orders    *services.OrderService
	Ledger    *services.Ledger
	Catalog   *services.Catalog
	Customers *services.CustomerDirectory
	Hub       *kds.Hub

	Pricing           models.PricingPolicy
	LowStockThreshold int
	CORSOrigin        string
	RateLimitRPS      float64
	RateLimitBurst    int
}

func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	if d.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(d.RateLimitRPS, d.RateLimitBurst).RateLimit())
	}

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(d.DB)
	customerCtrl := controllers.NewCustomerController(d.Customers)
	menuCtrl := controllers.NewMenuController(d.Catalog, d.Ledger, d.Pricing)
	orderCtrl := controllers.NewOrderController(d.Orders)
	ingredientCtrl := controllers.NewIngredientController(d.Ledger, d.Hub, d.LowStockThreshold)
	adminCtrl := controllers.NewAdminController(d.Orders, d.Ledger, d.LowStockThreshold)
	kdsCtrl := controllers.NewKDSController(d.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter().RateLimit())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Menu
	r.GET("/menu", menuCtrl.GetAllMenus)
	r.GET("/menu/:item_id", menuCtrl.GetMenuByID)

	// Customers
	r.POST("/customers", customerCtrl.CreateCustomer)
	r.GET("/customers/:customer_id", customerCtrl.GetCustomerByID)
	r.GET("/customers/:customer_id/orders", orderCtrl.ListByCustomer)

	// Orders (customer tidak perlu login)
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/:order_id", orderCtrl.GetOrder)
	r.POST("/orders/:order_id/items", orderCtrl.AddItem)
	r.DELETE("/orders/:order_id/items/:item_id", orderCtrl.RemoveItem)
	r.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)

	// KDS WebSocket, token lewat query ?token=
	r.GET("/kds/ws", middlewares.AuthMiddleware(), kdsCtrl.KDSHandler)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", middlewares.RequireRole(models.RoleAdmin), userCtrl.GetAllUsers)

	// CUSTOMERS
	auth.GET("/customers", customerCtrl.GetAllCustomers)
	auth.PATCH("/customers/:customer_id", customerCtrl.UpdateCustomer)

	// ORDERS (chef/staff/admin)
	auth.GET("/orders", orderCtrl.ListOrders)
	auth.GET("/orders/today", orderCtrl.ListToday)
	auth.PATCH("/orders/:order_id/status", middlewares.RequireRole(models.RoleChef, models.RoleStaff), orderCtrl.UpdateStatus)
	auth.POST("/orders/:order_id/reprice", middlewares.RequireRole(models.RoleStaff), orderCtrl.Reprice)

	// INGREDIENTS
	auth.GET("/ingredients", ingredientCtrl.GetAllIngredients)
	auth.GET("/ingredients/out-of-stock", ingredientCtrl.GetOutOfStock)
	auth.GET("/ingredients/low-stock", ingredientCtrl.GetLowStock)
	auth.GET("/ingredients/:ingredient_id", ingredientCtrl.GetIngredient)
	auth.POST("/ingredients", middlewares.RequireRole(models.RoleStaff), ingredientCtrl.CreateIngredient)
	auth.PATCH("/ingredients/:ingredient_id", middlewares.RequireRole(models.RoleStaff), ingredientCtrl.UpdateIngredient)
	auth.POST("/ingredients/:ingredient_id/restock", middlewares.RequireRole(models.RoleStaff, models.RoleChef), ingredientCtrl.Restock)

	// MENUS (staff/admin)
	menus := auth.Group("/menu")
	menus.Use(middlewares.RequireRole(models.RoleStaff))
	{
		menus.POST("", menuCtrl.CreateMenu)
		menus.PATCH("/:item_id", menuCtrl.UpdateMenu)
		menus.DELETE("/:item_id", menuCtrl.DeleteMenu)
	}

	// Routes untuk Admin
	auth.GET("/dashboard/stats", middlewares.RequireRole(models.RoleAdmin), adminCtrl.GetDashboardStats)

	return r
}
