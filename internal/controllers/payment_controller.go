package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shiply_server/internal/apperrors"
	"shiply_server/internal/config"
	"shiply_server/internal/middleware"
	"shiply_server/internal/models"
)

// ActivateAccount flips the paid flag. There is no real payment processor
// behind this; the generated payment id only marks when activation happened.
func ActivateAccount(c *gin.Context) {
	userID := middleware.UserID(c)

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if user.IsPaid {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Account is already activated"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_paid":      true,
		"payment_date": now,
		"payment_id":   "test_" + uuid.NewString(),
	}
	if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	config.DB.First(&user, userID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Account activated",
		"user":    prepareUserResponse(user),
	})
}

// PaymentStatus reports whether the caller's account is activated.
func PaymentStatus(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isPaid":      user.IsPaid,
		"paymentDate": user.PaymentDate,
	})
}
