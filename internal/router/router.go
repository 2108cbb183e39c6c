package router

import (
	"net/http"
	"time"

	"github.com/formbox/formbox-backend/internal/config"
	"github.com/formbox/formbox-backend/internal/handler"
	"github.com/formbox/formbox-backend/internal/middleware"
	"github.com/formbox/formbox-backend/internal/response"
	"github.com/formbox/formbox-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Form     *handler.FormHandler
	Public   *handler.PublicHandler
	Response *handler.ResponseHandler
	Media    *handler.MediaHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded media files statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiters: auth endpoints are brute-force targets, public
	// submission endpoints absorb whatever a shared link attracts.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	submitLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Public Group (No Auth, Rate Limited) ───────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(submitLimiter.Middleware())
	{
		publicAPI.GET("/forms/:share_token", handlers.Public.GetForm)
		publicAPI.POST("/forms/:share_token/responses", handlers.Public.SubmitResponse)
	}

	// ─── 2. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireOperatorJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireOperatorJWT(authService), handlers.Auth.GetProfile)
	}

	// ─── 3. Operator Group (JWT) ───────────────────────────────────────
	operatorAPI := router.Group("/api/v1")
	operatorAPI.Use(middleware.RequireOperatorJWT(authService))
	{
		operatorAPI.GET("/forms", handlers.Form.ListForms)
		operatorAPI.POST("/forms", handlers.Form.CreateForm)
		operatorAPI.GET("/forms/:form_id", handlers.Form.GetForm)
		operatorAPI.PUT("/forms/:form_id", handlers.Form.UpdateForm)
		operatorAPI.DELETE("/forms/:form_id", handlers.Form.DeleteForm)

		operatorAPI.GET("/forms/:form_id/responses", handlers.Response.ListResponses)
		operatorAPI.GET("/forms/:form_id/responses.csv", handlers.Response.ExportResponsesCSV)

		operatorAPI.POST("/media/upload", handlers.Media.UploadImage)
	}

	// ─── 4. WebSocket Group (Operator WS Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireOperatorWSAuth(authService))
	{
		ws.GET("/forms/:form_id/responses/stream", handlers.WS.ResponseStream)
	}

	return router
}
