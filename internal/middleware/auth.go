package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/authstate"
)

// Gin context keys set by RequireAuth.
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware guards routes that need a signed-in user.
type AuthMiddleware struct {
	store     *authstate.Store
	jwtSecret []byte
	log       *zap.Logger
}

// NewAuthMiddleware creates the guard. With a non-empty jwtSecret callers
// must also present the session's access token as a Bearer token.
func NewAuthMiddleware(store *authstate.Store, jwtSecret string, log *zap.Logger) *AuthMiddleware {
	if store == nil {
		panic("auth state store is not initialized for AuthMiddleware")
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &AuthMiddleware{store: store, log: log.Named("auth_middleware")}
	if jwtSecret != "" {
		m.jwtSecret = []byte(jwtSecret)
	}
	return m
}

// RequireAuth aborts with 401 unless a user is signed in. On success the user
// and its id are stored in the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.store.CurrentUser()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
			return
		}

		if m.jwtSecret != nil {
			subject, err := m.verifyBearer(c.GetHeader("Authorization"))
			if err != nil {
				m.log.Debug("Rejected bearer token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
				return
			}
			if subject != user.ID {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Token does not belong to the signed-in user"})
				return
			}
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

func (m *AuthMiddleware) verifyBearer(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(parts[1], claims, func(*jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
