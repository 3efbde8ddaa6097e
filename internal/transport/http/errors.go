package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

type insufficientDetails struct {
	Available int `json:"available"`
	Required  int `json:"required"`
}

// writeError maps domain errors to HTTP statuses. Unknown errors are logged and hidden.
func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	var ice *domain.InsufficientContentError
	switch {
	case errors.As(err, &ice):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "not enough questions available",
			Details: insufficientDetails{Available: ice.Available, Required: ice.Required},
		})
	case errors.Is(err, domain.ErrInvalidSubmission),
		errors.Is(err, domain.ErrMalformedQuestion),
		errors.Is(err, domain.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStaleSession):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "quiz session is stale, please start a new quiz"})
	case errors.Is(err, domain.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrMissingToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: auth.ErrMissingToken.Error()})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: auth.ErrInvalidToken.Error()})
	default:
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request payload", Details: err.Error()})
}
