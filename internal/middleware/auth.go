package middleware

import (
	"errors"
	"strings"

	"github.com/boehmtech/task-tracker/internal/constants"
	apierrors "github.com/boehmtech/task-tracker/internal/errors"
	"github.com/boehmtech/task-tracker/internal/models"
	"github.com/boehmtech/task-tracker/internal/repository"
	"github.com/boehmtech/task-tracker/internal/token"
	"github.com/gin-gonic/gin"
)

// RequireAuth validates the bearer token and loads the acting user into the
// gin context. Expired, invalid and missing tokens produce distinct error
// codes so clients can tell a refreshable session from a broken one.
func RequireAuth(tokens *token.Manager, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.TokenMissing(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		userID, err := tokens.Verify(tokenString, token.TypeAccess)
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				apierrors.TokenExpired(c)
			} else {
				apierrors.TokenInvalid(c)
			}
			c.Abort()
			return
		}

		actor, err := userRepo.FindByID(userID)
		if err != nil {
			apierrors.TokenInvalid(c)
			c.Abort()
			return
		}
		if !actor.IsActive {
			apierrors.Unauthorized(c, "Account is deactivated")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyActor, actor)
		c.Next()
	}
}

// RequireRole gates a route on the role hierarchy. Must run after RequireAuth.
func RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActor(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !actor.HasRole(required) {
			apierrors.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetActor retrieves the acting user from context.
func GetActor(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return nil, false
	}
	actor, ok := value.(*models.User)
	return actor, ok
}
