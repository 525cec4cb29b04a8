package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shiply_server/internal/apperrors"
	"shiply_server/internal/config"
	"shiply_server/internal/middleware"
	"shiply_server/internal/models"
)

type driverProfileInput struct {
	LicenseNumber   string         `json:"license_number" binding:"required"`
	LicenseExpiry   time.Time      `json:"license_expiry" binding:"required"`
	VehicleType     string         `json:"vehicle_type" binding:"required"`
	VehicleNumber   string         `json:"vehicle_number" binding:"required"`
	VehicleCapacity models.JSONMap `json:"vehicle_capacity"`
	Documents       models.JSONMap `json:"documents"`
}

// SubmitProfile creates or updates the driver profile. Every save, including
// the first, leaves the profile unverified so an admin has to review it
// before the driver can accept cargo again.
func SubmitProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	var input driverProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().
			Add("body", "license_number, license_expiry, vehicle_type and vehicle_number are required"))
		return
	}
	if !models.ValidVehicleType(input.VehicleType) {
		apperrors.Respond(c, apperrors.NewValidation().
			Add("vehicle_type", "vehicle type must be truck, van, trailer or container"))
		return
	}

	var driver models.Driver
	err := config.DB.Where("user_id = ?", userID).First(&driver).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		apperrors.Respond(c, err)
		return
	}

	driver.UserID = userID
	driver.LicenseNumber = input.LicenseNumber
	driver.LicenseExpiry = input.LicenseExpiry
	driver.VehicleType = input.VehicleType
	driver.VehicleNumber = input.VehicleNumber
	driver.VehicleCapacity = input.VehicleCapacity
	driver.Documents = input.Documents
	driver.IsVerified = false
	driver.VerifiedByID = nil
	driver.VerifiedAt = nil

	if err := config.DB.Save(&driver).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	config.DB.Preload("User").First(&driver, driver.ID)
	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

// GetProfile returns the caller's driver profile.
func GetProfile(c *gin.Context) {
	var driver models.Driver
	err := config.DB.Where("user_id = ?", middleware.UserID(c)).
		Preload("User").First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Driver profile not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

// GetOrders lists cargos assigned to the calling driver.
func GetOrders(c *gin.Context) {
	userID := middleware.UserID(c)

	var driver models.Driver
	if err := config.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Driver profile not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	var orders []models.Cargo
	err := config.DB.Where("assigned_driver_id = ?", userID).
		Preload("Shipper").Order("created_at DESC").Find(&orders).Error
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// AcceptOrder lets a verified driver claim a pending cargo. The claim is a
// single conditional update so two concurrent accepts cannot both win: the
// loser sees zero affected rows and gets a conflict.
func AcceptOrder(c *gin.Context) {
	userID := middleware.UserID(c)

	var driver models.Driver
	if err := config.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Driver profile not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if !driver.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"message": "Driver profile has not been verified by an administrator"})
		return
	}

	var cargo models.Cargo
	if err := config.DB.First(&cargo, c.Param("cargoId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	claimed, err := claimCargo(config.DB, cargo.ID, userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if !claimed {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrConflict, "Cargo is already assigned or delivered"))
		return
	}

	config.DB.Preload("Shipper").First(&cargo, cargo.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Order accepted", "cargo": cargo})
}

// claimCargo performs the compare-and-set: only a cargo still pending at
// write time is assigned. Reports whether this caller won.
func claimCargo(db *gorm.DB, cargoID, driverUserID uint) (bool, error) {
	res := db.Model(&models.Cargo{}).
		Where("id = ? AND status = ?", cargoID, models.StatusPending).
		Updates(map[string]interface{}{
			"assigned_driver_id": driverUserID,
			"status":             models.StatusAssigned,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// StartTransit moves an assigned cargo to in_transit; only the assigned
// driver may do it.
func StartTransit(c *gin.Context) {
	transitionOwnOrder(c, models.StatusInTransit, "Transit started")
}

// CompleteOrder moves an in-transit cargo to delivered; only the assigned
// driver may do it.
func CompleteOrder(c *gin.Context) {
	transitionOwnOrder(c, models.StatusDelivered, "Order delivered")
}

func transitionOwnOrder(c *gin.Context, next models.CargoStatus, message string) {
	userID := middleware.UserID(c)

	var cargo models.Cargo
	if err := config.DB.First(&cargo, c.Param("cargoId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if cargo.AssignedDriverID == nil || *cargo.AssignedDriverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "This order is not assigned to you"})
		return
	}

	if !cargo.Status.CanTransitionTo(next) {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrConflict, "Invalid status transition"))
		return
	}

	if err := config.DB.Model(&cargo).Update("status", next).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "cargo": cargo})
}
