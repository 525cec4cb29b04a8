package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shiply_server/internal/apperrors"
	"shiply_server/internal/config"
	"shiply_server/internal/middleware"
	"shiply_server/internal/models"
)

type cargoHistoryItem struct {
	models.Cargo
	DriverInfo *driverSummary  `json:"driver_info,omitempty"`
	Reviews    []models.Review `json:"reviews"`
}

type driverSummary struct {
	Rating          float64 `json:"rating"`
	CompletedOrders int     `json:"completed_orders"`
	VehicleType     string  `json:"vehicle_type"`
	VehicleNumber   string  `json:"vehicle_number"`
}

// CargoHistory returns the shipper's full cargo history with reviews and
// per-status counters.
func CargoHistory(c *gin.Context) {
	if middleware.Role(c) != models.RoleShipper {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only shippers can view cargo history"})
		return
	}
	userID := middleware.UserID(c)

	var cargos []models.Cargo
	err := config.DB.Where("shipper_id = ?", userID).
		Preload("AssignedDriver").Order("created_at DESC").Find(&cargos).Error
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	items := make([]cargoHistoryItem, 0, len(cargos))
	var totalValue float64
	counts := map[models.CargoStatus]int{}
	for _, cargo := range cargos {
		item := cargoHistoryItem{Cargo: cargo, Reviews: loadCargoReviews(cargo.ID)}
		if cargo.AssignedDriverID != nil {
			var driver models.Driver
			if err := config.DB.Where("user_id = ?", *cargo.AssignedDriverID).First(&driver).Error; err == nil {
				item.DriverInfo = &driverSummary{
					Rating:          driver.Rating,
					CompletedOrders: driver.CompletedOrders,
					VehicleType:     driver.VehicleType,
					VehicleNumber:   driver.VehicleNumber,
				}
			}
		}
		items = append(items, item)
		counts[cargo.Status]++
		totalValue += cargo.TotalPrice
	}

	c.JSON(http.StatusOK, gin.H{
		"cargos": items,
		"stats": gin.H{
			"total":      len(items),
			"pending":    counts[models.StatusPending],
			"assigned":   counts[models.StatusAssigned],
			"in_transit": counts[models.StatusInTransit],
			"delivered":  counts[models.StatusDelivered],
			"cancelled":  counts[models.StatusCancelled],
			"totalValue": totalValue,
		},
	})
}

// OrderHistory returns the driver's assignment history with earnings stats.
func OrderHistory(c *gin.Context) {
	if middleware.Role(c) != models.RoleDriver {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only drivers can view order history"})
		return
	}
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

	items := make([]cargoHistoryItem, 0, len(orders))
	counts := map[models.CargoStatus]int{}
	var totalEarnings float64
	for _, order := range orders {
		items = append(items, cargoHistoryItem{Cargo: order, Reviews: loadCargoReviews(order.ID)})
		counts[order.Status]++
		if order.Status == models.StatusDelivered {
			totalEarnings += order.TotalPrice
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": items,
		"stats": gin.H{
			"total":           len(items),
			"assigned":        counts[models.StatusAssigned],
			"in_transit":      counts[models.StatusInTransit],
			"delivered":       counts[models.StatusDelivered],
			"cancelled":       counts[models.StatusCancelled],
			"totalEarnings":   totalEarnings,
			"averageRating":   driver.Rating,
			"completedOrders": driver.CompletedOrders,
		},
	})
}

func loadCargoReviews(cargoID uint) []models.Review {
	var reviews []models.Review
	config.DB.Where("cargo_id = ?", cargoID).
		Preload("FromUser").Preload("ToUser").Find(&reviews)
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews
}
