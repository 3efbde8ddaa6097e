package app

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

// SessionAudience marks session tokens so they cannot pass as access tokens and vice versa.
const SessionAudience = "quiz-session"

// SessionClaims is the state a client carries between start and submit.
// The orders reveal the shuffle but not which canonical option is correct.
type SessionClaims struct {
	QuestionIDs []string             `json:"qids"`
	Orders      []domain.OptionOrder `json:"ord"`
	jwt.RegisteredClaims
}

// SessionSealer signs and verifies session tokens with HS256.
type SessionSealer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionSealer(secret []byte, ttl time.Duration) *SessionSealer {
	return &SessionSealer{secret: secret, ttl: ttl, now: time.Now}
}

// NewSessionSealerWithClock is test-only for deterministic expiry.
func NewSessionSealerWithClock(secret []byte, ttl time.Duration, now func() time.Time) *SessionSealer {
	return &SessionSealer{secret: secret, ttl: ttl, now: now}
}

// Seal returns the signed token and its expiry (zero when the sealer has no TTL).
func (s *SessionSealer) Seal(userID string, session Session) (string, time.Time, error) {
	issued := s.now()
	claims := SessionClaims{
		QuestionIDs: session.QuestionIDs(),
		Orders:      session.Orders(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  userID,
			Audience: jwt.ClaimStrings{SessionAudience},
			IssuedAt: jwt.NewNumericDate(issued),
		},
	}
	var expires time.Time
	if s.ttl > 0 {
		expires = issued.Add(s.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expires, nil
}

// Open verifies the signature and expiry. Tampered tokens are invalid submissions;
// expired ones are stale sessions.
func (s *SessionSealer) Open(token string) (SessionClaims, error) {
	if token == "" {
		return SessionClaims{}, domain.InvalidSubmission("missing session token")
	}

	var claims SessionClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return SessionClaims{}, domain.InvalidSubmission("session token: %v", err)
	}
	if !claims.VerifyAudience(SessionAudience, true) {
		return SessionClaims{}, domain.InvalidSubmission("not a session token")
	}
	if claims.ExpiresAt != nil && !claims.VerifyExpiresAt(s.now(), true) {
		return SessionClaims{}, fmt.Errorf("%w: session token expired", domain.ErrStaleSession)
	}
	return claims, nil
}

// matchClaims checks that the caller owns the session and echoed the ids unchanged.
func matchClaims(claims SessionClaims, userID string, questionIDs []string) error {
	if claims.Subject != userID {
		return domain.InvalidSubmission("session issued to another user")
	}
	if len(claims.QuestionIDs) != len(questionIDs) {
		return domain.InvalidSubmission("question count differs from session")
	}
	for i := range questionIDs {
		if claims.QuestionIDs[i] != questionIDs[i] {
			return domain.InvalidSubmission("question %d differs from session", i)
		}
	}
	return nil
}
