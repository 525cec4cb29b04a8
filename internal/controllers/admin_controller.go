package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shiply_server/internal/apperrors"
	"shiply_server/internal/config"
	"shiply_server/internal/middleware"
	"shiply_server/internal/models"
)

// ListDriversAdmin returns every driver profile for the verification queue.
func ListDriversAdmin(c *gin.Context) {
	var drivers []models.Driver
	err := config.DB.Preload("User").Order("created_at DESC").Find(&drivers).Error
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drivers": drivers})
}

// VerifyDriver approves a driver profile. Idempotent: verifying twice leaves
// the same state.
func VerifyDriver(c *gin.Context) {
	setDriverVerification(c, true, "Driver profile verified")
}

// RejectDriver rejects a driver profile, stamping who decided.
func RejectDriver(c *gin.Context) {
	setDriverVerification(c, false, "Driver profile rejected")
}

func setDriverVerification(c *gin.Context, verified bool, message string) {
	adminID := middleware.UserID(c)

	var driver models.Driver
	if err := config.DB.First(&driver, c.Param("driverId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Driver profile not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	updates := map[string]interface{}{
		"is_verified":    verified,
		"verified_by_id": adminID,
		"verified_at":    nil,
	}
	if verified {
		updates["verified_at"] = time.Now()
	}

	if err := config.DB.Model(&driver).Updates(updates).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	config.DB.Preload("User").First(&driver, driver.ID)
	c.JSON(http.StatusOK, gin.H{"message": message, "driver": driver})
}

// Stats aggregates marketplace counters for the admin dashboard.
func Stats(c *gin.Context) {
	var (
		totalUsers      int64
		paidUsers       int64
		activeUsers     int64
		totalDrivers    int64
		verifiedDrivers int64
		totalCargos     int64
		activeCargos    int64
	)

	db := config.DB
	db.Model(&models.User{}).Count(&totalUsers)
	db.Model(&models.User{}).Where("is_paid = ?", true).Count(&paidUsers)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	db.Model(&models.User{}).Where("last_login >= ?", thirtyDaysAgo).Count(&activeUsers)

	db.Model(&models.Driver{}).Count(&totalDrivers)
	db.Model(&models.Driver{}).Where("is_verified = ?", true).Count(&verifiedDrivers)
	db.Model(&models.Cargo{}).Count(&totalCargos)
	db.Model(&models.Cargo{}).
		Where("status IN ?", []models.CargoStatus{models.StatusPending, models.StatusAssigned, models.StatusInTransit}).
		Count(&activeCargos)

	c.JSON(http.StatusOK, gin.H{
		"totalUsers":      totalUsers,
		"paidUsers":       paidUsers,
		"activeUsers":     activeUsers,
		"totalDrivers":    totalDrivers,
		"verifiedDrivers": verifiedDrivers,
		"totalCargos":     totalCargos,
		"activeCargos":    activeCargos,
	})
}

func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 {
		limit = 50
	}
	return page, limit, (page - 1) * limit
}

// ListUsers returns a paginated, filterable user listing.
func ListUsers(c *gin.Context) {
	page, limit, offset := pagination(c)

	q := config.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if isPaid := c.Query("isPaid"); isPaid != "" {
		q = q.Where("is_paid = ?", isPaid == "true")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": int(math.Ceil(float64(total) / float64(limit))),
	})
}

// ListCargosAdmin returns a paginated cargo listing for moderation.
func ListCargosAdmin(c *gin.Context) {
	page, limit, offset := pagination(c)

	q := config.DB.Model(&models.Cargo{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if cargoType := c.Query("cargoType"); cargoType != "" {
		q = q.Where("cargo_type = ?", cargoType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	var cargos []models.Cargo
	err := q.Preload("Shipper").Preload("AssignedDriver").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&cargos).Error
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cargos":     cargos,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": int(math.Ceil(float64(total) / float64(limit))),
	})
}

// UpdateCargoAdmin edits any cargo (moderation); the transition table still
// applies to status changes.
func UpdateCargoAdmin(c *gin.Context) {
	var cargo models.Cargo
	if err := config.DB.First(&cargo, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	var input updateCargoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("body", "invalid request body"))
		return
	}

	if err := applyCargoUpdate(&cargo, &input); err != nil {
		apperrors.Respond(c, err)
		return
	}

	if err := config.DB.Save(&cargo).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	config.DB.Preload("Shipper").Preload("AssignedDriver").First(&cargo, cargo.ID)
	c.JSON(http.StatusOK, gin.H{"cargo": cargo})
}

// DeleteCargoAdmin removes any cargo (moderation).
func DeleteCargoAdmin(c *gin.Context) {
	var cargo models.Cargo
	if err := config.DB.First(&cargo, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if err := config.DB.Delete(&cargo).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cargo deleted"})
}
