package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shiply_server/internal/config"
	"shiply_server/internal/models"
)

// RequirePaid blocks write access for accounts that have not activated.
// Must run after RequireAuth so the user id claim is present.
func RequirePaid() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)

		var user models.User
		if err := config.DB.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to check account status"})
			}
			return
		}

		if !user.IsPaid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Account is not activated, payment required"})
			return
		}

		c.Set("current_user", &user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by RequirePaid, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("current_user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
