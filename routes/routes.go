package routes

import (
	"net/http"
	"time"

	"giftkit/handlers"
	"giftkit/middleware"
	"giftkit/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWizardRoutes registers the catalog and wizard endpoints. They are public;
// a bearer token on open only prefills the customer's details.
func RegisterWizardRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/catalog/tiers", hb.Wizard.TiersHandler)

	api := r.Group("/api/wizard")
	{
		api.POST("", hb.Wizard.OpenHandler)
		api.GET("/:id", hb.Wizard.GetHandler)
		api.DELETE("/:id", hb.Wizard.CloseHandler)
		api.POST("/:id/budget", hb.Wizard.BudgetHandler)
		api.POST("/:id/products", hb.Wizard.ProductsHandler)
		api.GET("/:id/products/missing", hb.Wizard.MissingCategoriesHandler)
		api.POST("/:id/logo", hb.Wizard.LogoHandler)
		api.POST("/:id/logo/keep", hb.Wizard.KeepLogoHandler)
		api.POST("/:id/logo/skip", hb.Wizard.SkipLogoHandler)
		api.DELETE("/:id/logo", hb.Wizard.RemoveLogoHandler)
		api.POST("/:id/price", hb.Wizard.PriceHandler)
		api.POST("/:id/confirm", hb.Wizard.ConfirmHandler)
		api.POST("/:id/details", hb.Wizard.DetailsHandler)
		api.POST("/:id/back", hb.Wizard.BackHandler)
	}
}

// RegisterAuthRoutes registers registration, login and profile endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle, tokens middleware.TokenValidator) {
	api := r.Group("/api/auth")
	{
		api.POST("/register", hb.Auth.RegisterHandler)
		api.POST("/register/verify", hb.Auth.VerifyRegistrationHandler)
		api.POST("/login", hb.Auth.LoginHandler)
		api.POST("/login/verify", hb.Auth.VerifyLoginHandler)

		// Protected routes (Require Authentication)
		api.GET("/me", middleware.JWTAuth(tokens), hb.Auth.MeHandler)
	}
}

// RegisterDashboardRoutes registers the sales dashboards. Associates and admins share
// the lead views; assignment and staff management are admin only.
func RegisterDashboardRoutes(r *gin.Engine, hb *handlers.HandlerBundle, tokens middleware.TokenValidator) {
	r.POST("/api/leads/callback", hb.Leads.CallbackHandler)

	dashboard := r.Group("/api/dashboard")
	dashboard.Use(middleware.JWTAuth(tokens), middleware.RequireRole(models.RoleAssociate, models.RoleAdmin))
	{
		dashboard.GET("/leads", hb.Leads.ListHandler)
		dashboard.GET("/leads/:id", hb.Leads.GetHandler)
		dashboard.PATCH("/leads/:id/status", hb.Leads.UpdateStatusHandler)
		dashboard.POST("/leads/:id/notes", hb.Leads.AddNoteHandler)
		dashboard.GET("/stats", hb.Leads.StatsHandler)
	}

	admin := dashboard.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/leads/:id/assign", hb.Leads.AssignHandler)
		admin.POST("/leads/assign", hb.Leads.BulkAssignHandler)
		admin.GET("/associates", hb.Auth.ListAssociatesHandler)
		admin.POST("/staff", hb.Auth.CreateStaffHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", handlers.HealthHandler(hb.Health))
}

// RegisterRoutes centralizes registration of all endpoints and CORS.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, tokens middleware.TokenValidator, origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAnyOrigin(origins),
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterWizardRoutes(r, hb)
	RegisterAuthRoutes(r, hb, tokens)
	RegisterDashboardRoutes(r, hb, tokens)
}

// gin-contrib/cors refuses a wildcard origin together with credentials.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
