package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Quiz     *app.QuizService
	Stats    *app.StatsService
	Admin    *app.AdminService
	Verifier *auth.Verifier
	Logger   logrus.FieldLogger

	// Observer and MetricsHandler are optional.
	Observer       RequestObserver
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(deps Dependencies) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Logger, deps.Observer))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	quiz := NewQuizHandler(deps.Quiz, deps.Logger)
	stats := NewStatsHandler(deps.Stats, deps.Logger)
	admin := NewAdminHandler(deps.Admin, deps.Logger)
	ws := NewWSHandler(deps.Stats, deps.Logger)

	requireAuth := RequireAuth(deps.Verifier, deps.Logger)

	api := router.Group("/api")
	{
		api.GET("/leaderboard", stats.Leaderboard)

		quizGroup := api.Group("/quiz", requireAuth)
		{
			quizGroup.GET("/random", quiz.Random)
			quizGroup.POST("/submit", quiz.Submit)
		}

		user := api.Group("/user", requireAuth)
		{
			user.GET("/profile", stats.Profile)
			user.GET("/history", stats.History)
			user.GET("/stats", stats.Stats)
		}

		adminGroup := api.Group("/admin", requireAuth, RequireAdmin())
		{
			adminGroup.GET("/questions", admin.List)
			adminGroup.POST("/questions", admin.Create)
			adminGroup.GET("/questions/:id", admin.Get)
			adminGroup.PUT("/questions/:id", admin.Update)
			adminGroup.DELETE("/questions/:id", admin.Delete)
			adminGroup.POST("/import", admin.Import)
			adminGroup.GET("/export", admin.Export)
		}
	}

	router.GET("/ws/leaderboard", ws.Leaderboard)
	return router
}
