package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

type StatsHandler struct {
	service *app.StatsService
	logger  logrus.FieldLogger
}

func NewStatsHandler(service *app.StatsService, logger logrus.FieldLogger) *StatsHandler {
	return &StatsHandler{service: service, logger: logger}
}

func (h *StatsHandler) Profile(c *gin.Context) {
	identity := identityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"id":      identity.UserID,
		"name":    identity.DisplayName,
		"isAdmin": identity.IsAdmin,
	})
}

func (h *StatsHandler) History(c *gin.Context) {
	attempts, err := h.service.History(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}

func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Leaderboard(c *gin.Context) {
	period, err := domain.ParsePeriod(c.Query("period"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	lb, err := h.service.Leaderboard(c.Request.Context(), period)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}
