package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

type QuizHandler struct {
	service *app.QuizService
	logger  logrus.FieldLogger
}

func NewQuizHandler(service *app.QuizService, logger logrus.FieldLogger) *QuizHandler {
	return &QuizHandler{service: service, logger: logger}
}

type submitRequest struct {
	QuestionIDs  []string        `json:"questionIds" binding:"required"`
	Answers      []domain.Answer `json:"userAnswers" binding:"required"`
	SessionToken string          `json:"sessionToken"`
}

type submitResponse struct {
	domain.AttemptResult
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
}

// Random starts a new quiz session for the caller.
func (h *QuizHandler) Random(c *gin.Context) {
	started, err := h.service.StartSession(c.Request.Context(), identityFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, started)
}

// Submit scores a finished session. A storage failure still returns the result, flagged as not persisted.
func (h *QuizHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.service.SubmitSession(c.Request.Context(), identityFrom(c), domain.Submission{
		QuestionIDs:    req.QuestionIDs,
		Answers:        req.Answers,
		SessionToken:   req.SessionToken,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	var storageErr *domain.StorageError
	switch {
	case errors.As(err, &storageErr):
		c.JSON(http.StatusOK, submitResponse{
			AttemptResult: result,
			Persisted:     false,
			Warning:       "your result could not be saved and will not appear in history or leaderboards",
		})
	case err != nil:
		writeError(c, h.logger, err)
	default:
		c.JSON(http.StatusOK, submitResponse{AttemptResult: result, Persisted: true})
	}
}
