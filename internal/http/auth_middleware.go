package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"expense-platform/internal/domain"
	"expense-platform/internal/service"
)

const currentUserKey = "current_user"

// SessionAuthMiddleware valida el bearer token contra el registro de
// sesiones y guarda la identidad resuelta en el contexto.
func SessionAuthMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authSvc.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrMissingToken):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			case errors.Is(err, service.ErrInvalidToken):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			case errors.Is(err, service.ErrIdentityNotFound):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found for token"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not authenticate"})
			}
			c.Abort()
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser obtiene la identidad autenticada desde el contexto.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}
