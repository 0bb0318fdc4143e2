package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"dropout-risk-service/internal/config"
	"dropout-risk-service/internal/core/domain"
)

const (
	ContextKeyRole    = "role"
	ContextKeySubject = "subject"
)

const (
	RoleTeacher = "teacher"
	RoleHOD     = "hod"
	RoleAdmin   = "admin"
)

// Claims carries the caller's role alongside the registered claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates HS256 bearer tokens. When disabled every request passes.
type Auth struct {
	enabled bool
	secret  []byte
	issuer  string
}

func NewAuth(cfg *config.AuthConfig) *Auth {
	return &Auth{
		enabled: cfg.Enabled,
		secret:  []byte(cfg.JWTSecret),
		issuer:  cfg.Issuer,
	}
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

// Authenticate rejects requests without a valid token and stores the role and
// subject claims on the context.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.enabled {
			c.Next()
			return
		}

		tokenStr := extractBearer(c.GetHeader("Authorization"))
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
			return
		}

		claims, err := a.parse(tokenStr)
		if err != nil {
			log.WithError(err).WithField("request_id", c.GetString(ContextKeyRequestID)).Warn("token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
			return
		}

		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// RequireRoles must run after Authenticate.
func (a *Auth) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.enabled {
			c.Next()
			return
		}
		if !slices.Contains(roles, c.GetString(ContextKeyRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

func (a *Auth) parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.Role == "" {
		return nil, errors.New("role claim is missing")
	}
	return claims, nil
}

// extractBearer extracts the token from the Authorization header.
func extractBearer(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
