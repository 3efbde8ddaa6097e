package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

const identityKey = "identity"

// RequestObserver receives one call per finished request.
type RequestObserver interface {
	ObserveRequest(method, route, status string, elapsed time.Duration)
}

// RequireAuth rejects requests without a valid bearer token and stores the caller's identity.
func RequireAuth(verifier *auth.Verifier, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := verifier.Verify(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			writeError(c, logger, err)
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "admin access required"})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(domain.Identity); ok {
			return identity
		}
	}
	return domain.Identity{}
}

// RequestLogger logs every request and feeds the observer, when set.
func RequestLogger(logger logrus.FieldLogger, observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if observer != nil {
			observer.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}

		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"route":       route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"remote_addr": c.ClientIP(),
		})
		if identity := identityFrom(c); identity.UserID != "" {
			entry = entry.WithField("user_id", identity.UserID)
		}
		if status >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Debug("request completed")
	}
}
