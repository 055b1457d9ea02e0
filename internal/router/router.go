package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/handler"
	"github.com/paperdrill/paperdrill-backend/internal/middleware"
	"github.com/paperdrill/paperdrill-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Paper     *handler.PaperHandler
	Attempt   *handler.AttemptHandler
	Score     *handler.ScoreHandler
	Generator *handler.GeneratorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
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

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// ─── Papers ────────────────────────────────────────────────────────
	papers := api.Group("/papers")
	{
		papers.GET("", handlers.Paper.ListPapers)
		papers.GET("/:id", handlers.Paper.GetPaper)
		papers.POST("", handlers.Paper.CreatePaper)
	}

	// ─── Attempts ──────────────────────────────────────────────────────
	attempts := api.Group("/attempts")
	{
		attempts.POST("", handlers.Attempt.StartAttempt)
		attempts.GET("/:key/state", handlers.Attempt.GetState)
		attempts.POST("/:key/answer", handlers.Attempt.Answer)
		attempts.POST("/:key/peek", handlers.Attempt.Peek)
		attempts.POST("/:key/bookmark", handlers.Attempt.Bookmark)
		attempts.POST("/:key/navigate", handlers.Attempt.Navigate)
		attempts.POST("/:key/search", handlers.Attempt.Search)
		attempts.POST("/:key/submit", handlers.Attempt.Submit)
	}

	// ─── Scores ────────────────────────────────────────────────────────
	scores := api.Group("/scores")
	{
		scores.GET("", handlers.Score.ListScores)
		scores.GET("/:id", handlers.Score.GetScore)
	}

	// ─── Generator (rate limited, the endpoint is expensive) ──────────
	genLimiter := middleware.NewRateLimiter(10, time.Minute)
	api.POST("/generate", genLimiter.Middleware(), handlers.Generator.Generate)

	return router
}
