package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"trivia-quiz-service/internal/domain"
)

// Audience is set on issued access tokens. Tokens from external issuers may omit it,
// but a token addressed to another audience is rejected.
const Audience = "quiz-api"

var (
	ErrMissingToken = errors.New("access token required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims are the bearer token claims. The subject is the user id; userId is accepted for
// tokens minted by older issuers.
type Claims struct {
	UserID  string `json:"userId,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

// Verifier turns HS256 bearer tokens into identities.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret, now: time.Now}
}

// Verify checks signature and expiry and returns the caller's identity.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrMissingToken
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(claims.Audience) > 0 && !claims.VerifyAudience(Audience, true) {
		return domain.Identity{}, fmt.Errorf("%w: wrong audience", ErrInvalidToken)
	}
	if !claims.VerifyExpiresAt(v.now(), false) {
		return domain.Identity{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	userID := claims.Subject
	if userID == "" {
		userID = claims.UserID
	}
	if userID == "" {
		return domain.Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	name := claims.Name
	if name == "" {
		name = displayNameFromEmail(claims.Email)
	}
	return domain.Identity{UserID: userID, DisplayName: name, IsAdmin: claims.IsAdmin}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Issuer mints tokens the Verifier accepts. Used by the token command and tests.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: secret, now: time.Now}
}

// Issue signs a token for identity; ttl <= 0 means no expiry.
func (i *Issuer) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Name:    identity.DisplayName,
		IsAdmin: identity.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.UserID,
			Audience: jwt.ClaimStrings{Audience},
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
