package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/venue"
)

// SessionKey is the key used to store the caller's session in the context
const SessionKey = "session"

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidToken   = errors.New("invalid session token")
	ErrInvalidSubject = errors.New("session token has no subject")
	ErrInvalidRole    = errors.New("session token has an unknown role")
)

// SessionClaims is the payload the identity provider signs for each user
type SessionClaims struct {
	jwt.RegisteredClaims
	Role     string   `json:"role"`
	VenueIDs []string `json:"venue_ids"`
}

// Authenticator verifies HS256 session tokens and resolves them into sessions
type Authenticator struct {
	secret []byte
	issuer string
	logger *slog.Logger
}

func NewAuthenticator(logger *slog.Logger, cfg *config.AuthConfig) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		logger: logger,
	}
}

// Parse validates the signature, expiry and issuer of tokenStr
func (a *Authenticator) Parse(tokenStr string) (*venue.Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSubject
	}

	role := venue.Role(strings.ToUpper(strings.TrimSpace(claims.Role)))
	if role != venue.RoleAdmin && role != venue.RoleUser {
		return nil, ErrInvalidRole
	}

	return &venue.Session{
		UserID:   claims.Subject,
		Role:     role,
		VenueIDs: claims.VenueIDs,
	}, nil
}

// Auth middleware requires a valid bearer token and stores the session
func Auth(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", ErrMissingToken.Error())
			return
		}

		session, err := a.Parse(tokenStr)
		if err != nil {
			RequestLogger(c, a.logger).Warn("Rejected session token", "path", c.Request.URL.Path, "error", err)
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired session")
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// GetSession returns the authenticated session, or nil outside Auth
func GetSession(c *gin.Context) *venue.Session {
	if v, exists := c.Get(SessionKey); exists {
		if session, ok := v.(*venue.Session); ok {
			return session
		}
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
