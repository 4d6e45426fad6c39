package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"challenger/config"
	"challenger/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Context keys set by the auth middleware
const (
	ctxUserID    = "user_id"
	ctxEmail     = "email"
	ctxAccessVia = "access_via"
)

// Claims are the bearer token claims. Subject carries the user uuid.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs an HS256 access token for userID
func GenerateToken(cfg *config.Config, userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    cfg.JWTIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates tokenString and returns its claims
func ParseToken(cfg *config.Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.JWTIssuer),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthRequired validates the bearer token and sets the caller in context
func AuthRequired(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header", "code": CodeUnauthorized})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format", "code": CodeUnauthorized})
			return
		}
		claims, err := ParseToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": CodeUnauthorized})
			return
		}
		c.Set(ctxUserID, uuid.MustParse(claims.Subject))
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// StaffRequired lets through staff by role, or a break-glass credential.
// Must run after AuthRequired.
func StaffRequired(authz service.AuthorizationService, operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		grant, err := authz.AuthorizeStaff(c.Request.Context(), GetUserID(c), GetEmail(c), operation)
		if err != nil {
			if errors.Is(err, service.ErrForbidden) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff access required", "code": CodeForbidden})
				return
			}
			log.WithFields(log.Fields{
				"operation": operation,
				"error":     err,
			}).Error("Staff authorization failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": CodeInternal})
			return
		}
		c.Set(ctxAccessVia, string(grant.Via))
		c.Next()
	}
}

// GetUserID returns the authenticated user ID (must be used after AuthRequired)
func GetUserID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil
	}
	return v.(uuid.UUID)
}

// GetEmail returns the authenticated caller's email claim
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
