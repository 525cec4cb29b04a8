package controllers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shiply_server/internal/apperrors"
	"shiply_server/internal/config"
	"shiply_server/internal/middleware"
	"shiply_server/internal/models"
)

type createReviewInput struct {
	CargoID  uint    `json:"cargo_id" binding:"required"`
	ToUserID uint    `json:"to_user_id" binding:"required"`
	Rating   float64 `json:"rating" binding:"required"`
	Comment  string  `json:"comment"`
}

// CreateReview records feedback for a delivered cargo. The author must be a
// party to the cargo, the recipient must be the other party, and only one
// review per (cargo, author) is allowed.
func CreateReview(c *gin.Context) {
	fromUserID := middleware.UserID(c)

	var input createReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().
			Add("body", "cargo_id, to_user_id and rating are required"))
		return
	}
	if input.Rating < 1 || input.Rating > 5 {
		apperrors.Respond(c, apperrors.NewValidation().Add("rating", "rating must be between 1 and 5"))
		return
	}

	var cargo models.Cargo
	if err := config.DB.First(&cargo, input.CargoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if cargo.Status != models.StatusDelivered {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Reviews are only allowed for delivered orders"})
		return
	}

	isShipper := cargo.ShipperID == fromUserID
	isDriver := cargo.AssignedDriverID != nil && *cargo.AssignedDriverID == fromUserID
	if !isShipper && !isDriver {
		c.JSON(http.StatusForbidden, gin.H{"message": "You did not take part in this order"})
		return
	}

	// The recipient has to be the opposite party on this cargo.
	var expectedTo uint
	if isShipper {
		if cargo.AssignedDriverID != nil {
			expectedTo = *cargo.AssignedDriverID
		}
	} else {
		expectedTo = cargo.ShipperID
	}
	if input.ToUserID != expectedTo {
		apperrors.Respond(c, apperrors.NewValidation().Add("to_user_id", "recipient is not the other party of this order"))
		return
	}

	var existing models.Review
	err := config.DB.Where("cargo_id = ? AND from_user_id = ?", input.CargoID, fromUserID).
		First(&existing).Error
	if err == nil {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrConflict, "You have already reviewed this order"))
		return
	}

	review := models.Review{
		CargoID:    input.CargoID,
		FromUserID: fromUserID,
		ToUserID:   input.ToUserID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	if err := config.DB.Create(&review).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	recalculateDriverRating(review.ToUserID)

	config.DB.Preload("FromUser").Preload("ToUser").Preload("Cargo").First(&review, review.ID)
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ReviewsByCargo lists all reviews left on one cargo.
func ReviewsByCargo(c *gin.Context) {
	var reviews []models.Review
	err := config.DB.Where("cargo_id = ?", c.Param("cargoId")).
		Preload("FromUser").Preload("ToUser").
		Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// ReviewsByUser lists reviews received by a user.
func ReviewsByUser(c *gin.Context) {
	var reviews []models.Review
	err := config.DB.Where("to_user_id = ?", c.Param("userId")).
		Preload("FromUser").Preload("Cargo").
		Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

type updateReviewInput struct {
	Rating  *float64 `json:"rating"`
	Comment *string  `json:"comment"`
}

// UpdateReview lets the author edit their review; the recipient's rating is
// recalculated afterwards.
func UpdateReview(c *gin.Context) {
	var review models.Review
	if err := config.DB.First(&review, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Review not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if review.FromUserID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "No access to this review"})
		return
	}

	var input updateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("body", "invalid request body"))
		return
	}
	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			apperrors.Respond(c, apperrors.NewValidation().Add("rating", "rating must be between 1 and 5"))
			return
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = *input.Comment
	}

	if err := config.DB.Save(&review).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	recalculateDriverRating(review.ToUserID)

	config.DB.Preload("FromUser").Preload("ToUser").Preload("Cargo").First(&review, review.ID)
	c.JSON(http.StatusOK, gin.H{"review": review})
}

// DeleteReview removes the author's review and recalculates the recipient.
func DeleteReview(c *gin.Context) {
	var review models.Review
	if err := config.DB.First(&review, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Review not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if review.FromUserID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "No access to this review"})
		return
	}

	toUserID := review.ToUserID
	if err := config.DB.Delete(&review).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	recalculateDriverRating(toUserID)

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// recalculateDriverRating refreshes the derived rating fields when the
// recipient is a driver: mean of received ratings rounded to two decimals,
// and the count of received reviews as completed orders.
func recalculateDriverRating(toUserID uint) {
	var user models.User
	if err := config.DB.First(&user, toUserID).Error; err != nil || user.Role != models.RoleDriver {
		return
	}

	var ratings []float64
	if err := config.DB.Model(&models.Review{}).
		Where("to_user_id = ?", toUserID).
		Pluck("rating", &ratings).Error; err != nil {
		logrus.WithError(err).Error("failed to load ratings for recalculation")
		return
	}

	err := config.DB.Model(&models.Driver{}).
		Where("user_id = ?", toUserID).
		Updates(map[string]interface{}{
			"rating":           meanRating(ratings),
			"completed_orders": len(ratings),
		}).Error
	if err != nil {
		logrus.WithError(err).Error("failed to update driver rating")
	}
}

// meanRating averages ratings rounded to two decimals; zero when empty.
func meanRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return math.Round(sum/float64(len(ratings))*100) / 100
}
