package controllers

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shiply_server/internal/apperrors"
	"shiply_server/internal/config"
	"shiply_server/internal/middleware"
	"shiply_server/internal/models"
)

type createCargoInput struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	CargoType        string           `json:"cargo_type"`
	VehicleType      string           `json:"vehicle_type"`
	WeightKg         float64          `json:"weight_kg"`
	WeightTons       *float64         `json:"weight_tons"`
	Volume           *float64         `json:"volume"`
	TotalPrice       float64          `json:"total_price"`
	Distance         *float64         `json:"distance"`
	Comment          string           `json:"comment"`
	PickupLocation   *models.Location `json:"pickup_location"`
	DeliveryLocation *models.Location `json:"delivery_location"`
	PickupDate       *time.Time       `json:"pickup_date"`
	DeliveryDate     *time.Time       `json:"delivery_date"`
}

// CreateCargo lets a paid shipper post a new listing. Derived fields are
// computed once here and never recomputed.
func CreateCargo(c *gin.Context) {
	if middleware.Role(c) != models.RoleShipper {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only shippers can create cargo"})
		return
	}

	var input createCargoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("body", "invalid request body"))
		return
	}

	verr := apperrors.NewValidation()
	if strings.TrimSpace(input.Title) == "" {
		verr.Add("title", "title is required")
	}
	if input.WeightKg <= 0 {
		verr.Add("weight_kg", "weight must be a positive number")
	}
	if input.TotalPrice <= 0 {
		verr.Add("total_price", "total price must be a positive number")
	}
	if input.PickupDate == nil {
		verr.Add("pickup_date", "pickup date is required")
	}
	if input.CargoType != "" && !models.ValidCargoType(input.CargoType) {
		verr.Add("cargo_type", "unknown cargo type")
	}
	if input.VehicleType != "" && !models.ValidCargoVehicleType(input.VehicleType) {
		verr.Add("vehicle_type", "vehicle type must be open or closed")
	}
	if input.Distance != nil && *input.Distance < 0 {
		verr.Add("distance", "distance cannot be negative")
	}
	if verr.HasErrors() {
		apperrors.Respond(c, verr)
		return
	}

	cargo := models.Cargo{
		ShipperID:   middleware.UserID(c),
		Title:       input.Title,
		Description: input.Description,
		CargoType:   defaultString(input.CargoType, "general"),
		VehicleType: defaultString(input.VehicleType, "closed"),
		WeightKg:    input.WeightKg,
		WeightTons:  deriveWeightTons(input.WeightKg, input.WeightTons),
		Volume:      input.Volume,
		TotalPrice:  input.TotalPrice,
		PricePerKm:  computePricePerKm(input.TotalPrice, input.Distance),
		Distance:    input.Distance,
		Comment:     input.Comment,
		PickupDate:  *input.PickupDate,
		Status:      models.StatusPending,
	}
	if input.PickupLocation != nil {
		cargo.PickupLocation = *input.PickupLocation
	}
	if input.DeliveryLocation != nil {
		cargo.DeliveryLocation = *input.DeliveryLocation
	}
	if input.DeliveryDate != nil {
		cargo.DeliveryDate = input.DeliveryDate
	}

	if err := config.DB.Create(&cargo).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	config.DB.Preload("Shipper").First(&cargo, cargo.ID)

	c.JSON(http.StatusCreated, gin.H{"cargo": cargo})
}

// MyCargos lists the caller's own cargos with filtering and sorting.
func MyCargos(c *gin.Context) {
	userID := middleware.UserID(c)

	q := config.DB.Model(&models.Cargo{}).Where("shipper_id = ?", userID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	q = applyCargoFilters(q, c)
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var cargos []models.Cargo
	if err := q.Preload("AssignedDriver").Order(sortOrder(c.Query("sort"))).Find(&cargos).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	cargos = filterByCity(cargos, c.Query("cityFrom"), c.Query("cityTo"))

	c.JSON(http.StatusOK, gin.H{"cargos": attachDriverInfo(cargos)})
}

// AvailableCargos lists pending cargos for drivers to browse. City and text
// filters run in memory because locations live in JSON columns.
func AvailableCargos(c *gin.Context) {
	q := config.DB.Model(&models.Cargo{}).Where("status = ?", models.StatusPending)
	q = applyCargoFilters(q, c)

	var cargos []models.Cargo
	if err := q.Preload("Shipper").Order(sortOrder(c.Query("sort"))).Find(&cargos).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	cargos = filterByCity(cargos, c.Query("cityFrom"), c.Query("cityTo"))
	if search := c.Query("search"); search != "" {
		cargos = filterBySearch(cargos, search)
	}

	c.JSON(http.StatusOK, gin.H{"cargos": cargos})
}

// GetCargo returns one cargo with both parties preloaded.
func GetCargo(c *gin.Context) {
	var cargo models.Cargo
	err := config.DB.Preload("Shipper").Preload("AssignedDriver").
		First(&cargo, c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"cargo": cargo})
}

type updateCargoInput struct {
	Title            *string             `json:"title"`
	Description      *string             `json:"description"`
	CargoType        *string             `json:"cargo_type"`
	VehicleType      *string             `json:"vehicle_type"`
	WeightKg         *float64            `json:"weight_kg"`
	WeightTons       *float64            `json:"weight_tons"`
	Volume           *float64            `json:"volume"`
	TotalPrice       *float64            `json:"total_price"`
	Distance         *float64            `json:"distance"`
	Comment          *string             `json:"comment"`
	PickupLocation   *models.Location    `json:"pickup_location"`
	DeliveryLocation *models.Location    `json:"delivery_location"`
	PickupDate       *time.Time          `json:"pickup_date"`
	DeliveryDate     *time.Time          `json:"delivery_date"`
	Status           *models.CargoStatus `json:"status"`
}

// UpdateCargo lets the owning shipper edit a listing. Status changes go
// through the transition table.
func UpdateCargo(c *gin.Context) {
	var cargo models.Cargo
	if err := config.DB.First(&cargo, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if cargo.ShipperID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "No access to this cargo"})
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

// DeleteCargo removes a listing; only the owner may do it.
func DeleteCargo(c *gin.Context) {
	var cargo models.Cargo
	if err := config.DB.First(&cargo, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if cargo.ShipperID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "No access to this cargo"})
		return
	}

	if err := config.DB.Delete(&cargo).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cargo deleted"})
}

// CancelCargo is the escape hatch from any non-terminal state. Allowed for
// the owning shipper and for admins. Clearing the driver keeps the
// assignment invariant: a driver id is only set on assigned and later states.
func CancelCargo(c *gin.Context) {
	var cargo models.Cargo
	if err := config.DB.First(&cargo, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cargo not found"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if middleware.Role(c) != models.RoleAdmin && cargo.ShipperID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "No access to this cargo"})
		return
	}

	if !cargo.Status.CanTransitionTo(models.StatusCancelled) {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrConflict, "Cargo can no longer be cancelled"))
		return
	}

	updates := map[string]interface{}{
		"status":             models.StatusCancelled,
		"assigned_driver_id": nil,
	}
	if err := config.DB.Model(&cargo).Updates(updates).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cargo cancelled", "cargo": cargo})
}

// --- helpers ---

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// computePricePerKm derives the per-km price; nil when distance is unknown
// or zero so we never divide by zero.
func computePricePerKm(totalPrice float64, distance *float64) *float64 {
	if totalPrice <= 0 || distance == nil || *distance <= 0 {
		return nil
	}
	perKm := math.Round(totalPrice / *distance * 100) / 100
	return &perKm
}

// deriveWeightTons fills weight in tons from kilograms when not supplied.
func deriveWeightTons(weightKg float64, weightTons *float64) float64 {
	if weightTons != nil {
		return *weightTons
	}
	return weightKg / 1000
}

// applyCargoFilters adds the shared numeric/equality filters from the query
// string: cargo type, price range, weight range, pickup date range.
func applyCargoFilters(q *gorm.DB, c *gin.Context) *gorm.DB {
	if cargoType := c.Query("cargoType"); cargoType != "" {
		q = q.Where("cargo_type = ?", cargoType)
	}
	if min := c.Query("minPrice"); min != "" {
		q = q.Where("total_price >= ?", min)
	}
	if max := c.Query("maxPrice"); max != "" {
		q = q.Where("total_price <= ?", max)
	}
	if min := c.Query("minWeight"); min != "" {
		q = q.Where("weight_kg >= ?", min)
	}
	if max := c.Query("maxWeight"); max != "" {
		q = q.Where("weight_kg <= ?", max)
	}
	if from := c.Query("dateFrom"); from != "" {
		q = q.Where("pickup_date >= ?", from)
	}
	if to := c.Query("dateTo"); to != "" {
		q = q.Where("pickup_date <= ?", to)
	}
	return q
}

// sortOrder maps the sort query param ("price_desc", "date_asc", ...) to an
// ORDER BY clause, newest first by default.
func sortOrder(param string) string {
	field, direction, found := strings.Cut(param, "_")
	if !found {
		return "created_at DESC"
	}
	dir := "ASC"
	if direction == "desc" {
		dir = "DESC"
	}
	switch field {
	case "price":
		return "total_price " + dir
	case "date":
		return "pickup_date " + dir
	case "distance":
		return "distance " + dir
	case "weight":
		return "weight_kg " + dir
	}
	return "created_at DESC"
}

// filterByCity narrows by pickup/delivery city substring. Runs after the SQL
// filters since locations are JSON columns, not indexed scalars.
func filterByCity(cargos []models.Cargo, cityFrom, cityTo string) []models.Cargo {
	if cityFrom == "" && cityTo == "" {
		return cargos
	}
	out := cargos[:0]
	for _, cargo := range cargos {
		if cityFrom != "" && !containsFold(cargo.PickupLocation.City, cityFrom) {
			continue
		}
		if cityTo != "" && !containsFold(cargo.DeliveryLocation.City, cityTo) {
			continue
		}
		out = append(out, cargo)
	}
	return out
}

func filterBySearch(cargos []models.Cargo, term string) []models.Cargo {
	out := cargos[:0]
	for _, cargo := range cargos {
		if containsFold(cargo.Title, term) || containsFold(cargo.Description, term) {
			out = append(out, cargo)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type cargoWithDriverInfo struct {
	models.Cargo
	DriverRating          *float64 `json:"driver_rating,omitempty"`
	DriverCompletedOrders *int     `json:"driver_completed_orders,omitempty"`
}

// attachDriverInfo decorates assigned cargos with the driver's rating so the
// shipper list shows it without extra calls.
func attachDriverInfo(cargos []models.Cargo) []cargoWithDriverInfo {
	userIDs := make([]uint, 0, len(cargos))
	for _, cargo := range cargos {
		if cargo.AssignedDriverID != nil {
			userIDs = append(userIDs, *cargo.AssignedDriverID)
		}
	}

	byUser := map[uint]models.Driver{}
	if len(userIDs) > 0 {
		var drivers []models.Driver
		if err := config.DB.Where("user_id IN ?", userIDs).Find(&drivers).Error; err == nil {
			for _, d := range drivers {
				byUser[d.UserID] = d
			}
		}
	}

	out := make([]cargoWithDriverInfo, 0, len(cargos))
	for _, cargo := range cargos {
		item := cargoWithDriverInfo{Cargo: cargo}
		if cargo.AssignedDriverID != nil {
			if d, ok := byUser[*cargo.AssignedDriverID]; ok {
				rating, completed := d.Rating, d.CompletedOrders
				item.DriverRating = &rating
				item.DriverCompletedOrders = &completed
			}
		}
		out = append(out, item)
	}
	return out
}

// applyCargoUpdate copies the provided fields onto the cargo, re-deriving
// price-per-km when price or distance changed and validating status moves.
func applyCargoUpdate(cargo *models.Cargo, input *updateCargoInput) error {
	verr := apperrors.NewValidation()

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			verr.Add("title", "title cannot be empty")
		} else {
			cargo.Title = *input.Title
		}
	}
	if input.Description != nil {
		cargo.Description = *input.Description
	}
	if input.CargoType != nil {
		if !models.ValidCargoType(*input.CargoType) {
			verr.Add("cargo_type", "unknown cargo type")
		} else {
			cargo.CargoType = *input.CargoType
		}
	}
	if input.VehicleType != nil {
		if !models.ValidCargoVehicleType(*input.VehicleType) {
			verr.Add("vehicle_type", "vehicle type must be open or closed")
		} else {
			cargo.VehicleType = *input.VehicleType
		}
	}
	if input.WeightKg != nil {
		if *input.WeightKg <= 0 {
			verr.Add("weight_kg", "weight must be a positive number")
		} else {
			cargo.WeightKg = *input.WeightKg
			cargo.WeightTons = deriveWeightTons(*input.WeightKg, input.WeightTons)
		}
	}
	if input.Volume != nil {
		cargo.Volume = input.Volume
	}
	if input.TotalPrice != nil {
		if *input.TotalPrice <= 0 {
			verr.Add("total_price", "total price must be a positive number")
		} else {
			cargo.TotalPrice = *input.TotalPrice
		}
	}
	if input.Distance != nil {
		cargo.Distance = input.Distance
	}
	if input.TotalPrice != nil || input.Distance != nil {
		cargo.PricePerKm = computePricePerKm(cargo.TotalPrice, cargo.Distance)
	}
	if input.Comment != nil {
		cargo.Comment = *input.Comment
	}
	if input.PickupLocation != nil {
		cargo.PickupLocation = *input.PickupLocation
	}
	if input.DeliveryLocation != nil {
		cargo.DeliveryLocation = *input.DeliveryLocation
	}
	if input.PickupDate != nil {
		cargo.PickupDate = *input.PickupDate
	}
	if input.DeliveryDate != nil {
		cargo.DeliveryDate = input.DeliveryDate
	}

	if input.Status != nil && *input.Status != cargo.Status {
		next := *input.Status
		if !cargo.Status.CanTransitionTo(next) {
			return apperrors.Wrap(apperrors.ErrConflict, "Invalid status transition")
		}
		// Assignment happens only through accept-order, so a driver must
		// already be attached before any post-assignment status. Cancelling
		// detaches the driver; a driver id is never set on a cancelled cargo.
		if next != models.StatusCancelled && cargo.AssignedDriverID == nil {
			return apperrors.Wrap(apperrors.ErrConflict, "Cargo has no assigned driver")
		}
		if next == models.StatusCancelled {
			cargo.AssignedDriverID = nil
		}
		cargo.Status = next
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
