package middleware

import (
	"context"
	"net/http"

	"chat-realtime/internal/models"
	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth verifies the bearer token and stores the caller's identity
// on the context. The rejection body never says why the token failed.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := websocket.ParamsFromRequest(c.Request)
		if params.Token == "" {
			abortUnauthorized(c)
			return
		}

		identity, err := am.verifier.Verify(c.Request.Context(), params.Token)
		if err != nil || identity == nil {
			abortUnauthorized(c)
			return
		}

		c.Set(identityKey, *identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity set by RequireAuth.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Code:    response.ErrCodeUnauthorized,
		Message: response.Msg(response.ErrCodeUnauthorized),
	})
}
