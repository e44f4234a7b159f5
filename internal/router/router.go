package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edanalytica/gradelens-backend/internal/config"
	"github.com/edanalytica/gradelens-backend/internal/handler"
	"github.com/edanalytica/gradelens-backend/internal/middleware"
	"github.com/edanalytica/gradelens-backend/internal/response"
	"github.com/edanalytica/gradelens-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
	Trend     *handler.TrendHandler
	Covid     *handler.CovidHandler
	Dataset   *handler.DatasetHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	datasetService *service.DatasetService,
	rdb *redis.Client,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally; the aggregate payloads are large.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for login (10 attempts per minute per IP).
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
	}

	// ─── 2. Dashboard Group (Analyst JWT, Cached) ──────────────────────
	dashboard := router.Group("/api/v1/dashboard")
	dashboard.Use(middleware.RequireAnalystJWT(authService))
	if rdb != nil {
		dashboard.Use(middleware.ResponseCache(rdb, datasetService.Generation, cfg.CacheTTL, log))
	}
	{
		dashboard.GET("/meta", handlers.Dashboard.GetMeta)
		dashboard.POST("/view", handlers.Dashboard.PostView)
		dashboard.GET("/records", handlers.Dashboard.GetRecords)
		dashboard.GET("/students", handlers.Dashboard.GetStudents)
		dashboard.GET("/trend", handlers.Trend.GetTrend)
		dashboard.GET("/trend/by", handlers.Trend.GetTrendBy)
		dashboard.GET("/trend/departments", handlers.Trend.GetTrendDepartments)
		dashboard.GET("/rankings", handlers.Trend.GetRankings)
		dashboard.GET("/covid", handlers.Covid.GetCovid)
		dashboard.GET("/outliers", handlers.Covid.GetOutliers)
	}

	// ─── 3. Admin Group (Analyst JWT, Never Cached) ────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAnalystJWT(authService))
	{
		adminAPI.POST("/dataset/reload", handlers.Dataset.ReloadDataset)
	}

	return router
}
