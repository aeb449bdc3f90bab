package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vantora/vantora-backend/internal/config"
	"github.com/vantora/vantora-backend/internal/handler"
	"github.com/vantora/vantora-backend/internal/middleware"
	"github.com/vantora/vantora-backend/internal/response"
	"github.com/vantora/vantora-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Candidate  *handler.CandidateHandler
	Catalog    *handler.CatalogHandler
	Assignment *handler.AssignmentHandler
	Monitor    *handler.MonitorHandler
	User       *handler.UserHandler
}

// SetupRouter configures all Gin route groups with their middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list; otherwise
	// allow all so dev works without extra config.
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

	// Request IDs go on every response envelope.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		candidateAPI.GET("/assignments", handlers.Candidate.ListAssignments)
		candidateAPI.POST("/sessions/validate", handlers.Candidate.ValidateCode)
		candidateAPI.POST("/sessions/start", handlers.Candidate.StartSession)
		candidateAPI.POST("/sessions/submit", handlers.Candidate.Submit)
		candidateAPI.POST("/answers", handlers.Candidate.SaveAnswer)
		candidateAPI.POST("/violations", handlers.Candidate.LogViolation)
	}

	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/test-types", handlers.Catalog.ListTestTypes)
		adminAPI.POST("/test-types", handlers.Catalog.CreateTestType)

		adminAPI.GET("/question-sets", handlers.Catalog.ListQuestionSets)
		adminAPI.POST("/question-sets", handlers.Catalog.CreateQuestionSet)
		adminAPI.GET("/question-sets/:set_id", handlers.Catalog.GetQuestionSet)
		adminAPI.PATCH("/question-sets/:set_id", handlers.Catalog.UpdateQuestionSet)
		adminAPI.DELETE("/question-sets/:set_id", handlers.Catalog.DeleteQuestionSet)
		adminAPI.POST("/question-sets/:set_id/questions", handlers.Catalog.CreateQuestion)
		adminAPI.PUT("/question-sets/:set_id/questions/order", handlers.Catalog.ReorderQuestions)
		adminAPI.PATCH("/question-sets/:set_id/questions/:question_id", handlers.Catalog.UpdateQuestion)
		adminAPI.DELETE("/question-sets/:set_id/questions/:question_id", handlers.Catalog.DeleteQuestion)

		adminAPI.POST("/assignments", handlers.Assignment.Create)
		adminAPI.POST("/assignments/:assignment_id/regenerate", handlers.Assignment.Regenerate)
		adminAPI.PATCH("/assignments/:assignment_id/active", handlers.Assignment.SetActive)

		adminAPI.GET("/users", handlers.User.List)
		adminAPI.POST("/users", handlers.User.Create)
		adminAPI.PATCH("/users/:user_id", handlers.User.Update)
		adminAPI.POST("/users/:user_id/reset-login", handlers.User.ResetLogin)

		adminAPI.GET("/monitoring", handlers.Monitor.Monitoring)
		adminAPI.GET("/summary", handlers.Monitor.Summary)
		adminAPI.GET("/dashboard", handlers.Monitor.Dashboard)
		adminAPI.GET("/sessions/:session_id/answers", handlers.Monitor.SessionAnswers)
		adminAPI.GET("/sessions/:session_id/violations", handlers.Monitor.SessionViolations)
		adminAPI.GET("/violations", handlers.Monitor.ListViolations)
	}

	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/monitor", handlers.Monitor.MonitorStream)
	}

	return router
}
