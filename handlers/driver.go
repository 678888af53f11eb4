package handlers

import (
	"net/http"
	"time"

	"truckdrive-api/config"
	"truckdrive-api/middleware"
	"truckdrive-api/models"
	"truckdrive-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// locationMaxAge is how long a location update stays fresh for
// request matching
const locationMaxAge = 24 * time.Hour

type CreateDriverProfileRequest struct {
	TruckType    models.TruckType `json:"truck_type" binding:"required"`
	TruckModel   string           `json:"truck_model"`
	LicensePlate string           `json:"license_plate" binding:"required"`
}

// driverForUser loads the caller's driver profile, or writes a 404
func driverForUser(c *gin.Context) (*models.Driver, bool) {
	userID := middleware.GetUserID(c)
	var driver models.Driver
	if err := config.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver profile not found. Complete your driver profile first."})
		return nil, false
	}
	return &driver, true
}

// hasActiveDelivery reports whether the driver has an unfinished run
func hasActiveDelivery(db *gorm.DB, driverID uint) bool {
	var count int64
	db.Model(&models.Delivery{}).
		Where("driver_id = ? AND status IN ?", driverID,
			[]models.DeliveryStatus{models.DeliveryAssigned, models.DeliveryInTransit}).
		Count(&count)
	return count > 0
}

// CreateDriverProfile creates the 1:1 driver record for the account
func CreateDriverProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req CreateDriverProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidTruckType(req.TruckType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid truck type. Must be: small, medium, large, or xlarge"})
		return
	}

	var existing models.Driver
	if result := config.DB.Where("user_id = ?", userID).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Driver profile already exists for this account"})
		return
	}

	driver := models.Driver{
		UserID:       userID,
		TruckType:    req.TruckType,
		TruckModel:   req.TruckModel,
		LicensePlate: req.LicensePlate,
		Rating:       5.0,
		IsAvailable:  true,
	}
	if err := config.DB.Create(&driver).Error; err != nil {
		config.Log.Errorw("driver profile creation failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create driver profile"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Driver profile created", "driver": driver})
}

// GetDriverProfile returns the caller's driver profile
func GetDriverProfile(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

type UpdateLocationRequest struct {
	Location string `json:"location" binding:"required"`
	City     string `json:"city" binding:"required"`
}

// UpdateDriverLocation records where the driver currently is. The
// timestamp gates request visibility for the next 24 hours.
func UpdateDriverLocation(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	config.DB.Model(driver).Updates(map[string]interface{}{
		"current_location":     req.Location,
		"current_city":         req.City,
		"last_location_update": now,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Location updated. You will now see requests in " + req.City + ".",
		"city":    req.City,
	})
}

type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// SetDriverAvailability is the driver's manual online/offline toggle.
// Going available is refused while a delivery is still unfinished so
// the availability flag always mirrors the driver's real state.
func SetDriverAvailability(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}

	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if *req.IsAvailable && hasActiveDelivery(config.DB, driver.ID) {
		c.JSON(http.StatusConflict, gin.H{"error": "You have an active delivery. Complete it before going available."})
		return
	}

	config.DB.Model(driver).Update("is_available", *req.IsAvailable)
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated", "is_available": *req.IsAvailable})
}

// GetAvailableRequests returns the pending requests visible to the
// driver. Visibility preconditions are checked in order and the first
// failing one is reported as a distinct reason instead of a silently
// empty list.
func GetAvailableRequests(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}

	empty := func(reason, message string) {
		c.JSON(http.StatusOK, gin.H{
			"count":    0,
			"requests": []models.DeliveryRequest{},
			"reason":   reason,
			"message":  message,
		})
	}

	if hasActiveDelivery(config.DB, driver.ID) {
		empty("active_delivery", "You have an active delivery. Complete it before accepting new requests.")
		return
	}
	if !driver.IsAvailable {
		empty("offline", "You are currently offline. Turn on availability to see requests.")
		return
	}
	if driver.CurrentCity == "" || driver.LastLocationUpdate == nil {
		empty("no_location", "Update your location first to see delivery requests in your area.")
		return
	}
	if time.Since(*driver.LastLocationUpdate) > locationMaxAge {
		empty("location_stale", "Your location is outdated. Update your location to receive new requests.")
		return
	}

	var cityRequests []models.DeliveryRequest
	config.DB.Where("pickup_city = ? AND status = ?", driver.CurrentCity, models.RequestPending).
		Order("created_at asc").
		Find(&cityRequests)

	// Requests the driver already declined stay invisible
	requests := make([]models.DeliveryRequest, 0, len(cityRequests))
	for _, r := range cityRequests {
		if !r.DeclinedDrivers.Contains(driver.ID) {
			requests = append(requests, r)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(requests),
		"requests": requests,
		"city":     driver.CurrentCity,
	})
}

type PlaceBidRequest struct {
	BidAmount float64 `json:"bid_amount" binding:"required,gt=0"`
	Message   string  `json:"message"`
}

// PlaceBid submits a priced offer against a pending request. Driver
// display fields are snapshotted onto the bid and the request's bid
// counter moves with the insert.
func PlaceBid(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}
	requestID := c.Param("id")

	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var request models.DeliveryRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery request not found"})
		return
	}
	if request.Status != models.RequestPending {
		c.JSON(http.StatusConflict, gin.H{"error": "This request is no longer open for bids"})
		return
	}

	var existing models.Bid
	if result := config.DB.Where("request_id = ? AND driver_id = ? AND status = ?",
		request.ID, driver.ID, models.BidPending).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a pending bid on this request"})
		return
	}

	var driverUser models.User
	if err := config.DB.First(&driverUser, driver.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver account not found"})
		return
	}

	bid := models.Bid{
		RequestID:    request.ID,
		DriverID:     driver.ID,
		CustomerID:   request.CustomerID,
		BidAmount:    req.BidAmount,
		Message:      req.Message,
		Status:       models.BidPending,
		DriverName:   driverUser.Name,
		DriverPhone:  driverUser.Phone,
		TruckType:    driver.TruckType,
		TruckModel:   driver.TruckModel,
		DriverRating: driver.Rating,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&bid).Error; err != nil {
			return err
		}
		return tx.Model(&request).Update("bid_count", gorm.Expr("bid_count + 1")).Error
	})
	if err != nil {
		config.Log.Errorw("bid creation failed", "request_id", request.ID, "driver_id", driver.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit bid"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Your bid has been submitted", "bid": bid})
}

// DeclineRequest hides a request from this driver permanently.
// Appending to the declined list is idempotent.
func DeclineRequest(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}
	requestID := c.Param("id")

	var request models.DeliveryRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery request not found"})
		return
	}

	if !request.DeclinedDrivers.Contains(driver.ID) {
		request.DeclinedDrivers = append(request.DeclinedDrivers, driver.ID)
		// Update via the field, not a raw column value, so the json
		// serializer on DeclinedDrivers runs
		if err := config.DB.Model(&request).Select("declined_drivers").Updates(&request).Error; err != nil {
			config.Log.Errorw("request decline failed", "request_id", request.ID, "driver_id", driver.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline request"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request declined. You will no longer see it.", "request_id": request.ID})
}

// GetMyDeliveries returns all deliveries assigned to the driver
func GetMyDeliveries(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}

	var deliveries []models.Delivery
	query := config.DB.Preload("Request").Where("driver_id = ?", driver.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Order("updated_at desc").Find(&deliveries)

	c.JSON(http.StatusOK, gin.H{"count": len(deliveries), "deliveries": deliveries})
}

type UpdateDeliveryStatusRequest struct {
	Status models.DeliveryStatus `json:"status" binding:"required"`
}

// UpdateDeliveryStatus moves a delivery through its lifecycle.
// Completing a delivery stamps the completion time, bumps the driver's
// lifetime counter, closes the underlying request and frees the driver.
func UpdateDeliveryStatus(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}
	deliveryID := c.Param("id")

	var delivery models.Delivery
	if err := config.DB.First(&delivery, deliveryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	if delivery.DriverID != driver.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not the assigned driver for this delivery"})
		return
	}

	var req UpdateDeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := statemachine.CanTransition(delivery.Status, req.Status, "driver"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    delivery.Status,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidTransitionsFrom(delivery.Status),
		})
		return
	}

	prevStatus := delivery.Status
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		return applyDeliveryStatus(tx, &delivery, req.Status)
	})
	if err != nil {
		config.Log.Errorw("delivery status update failed", "delivery_id", delivery.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update delivery status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Delivery status updated",
		"delivery_id":     delivery.ID,
		"previous_status": prevStatus,
		"current_status":  req.Status,
	})
}

// applyDeliveryStatus writes the new status and, on completion, the
// side effects that keep driver counters and the request consistent
func applyDeliveryStatus(tx *gorm.DB, delivery *models.Delivery, status models.DeliveryStatus) error {
	update := map[string]interface{}{"status": status}
	if status == models.DeliveryCompleted {
		update["completed_at"] = time.Now()
	}
	if err := tx.Model(delivery).Updates(update).Error; err != nil {
		return err
	}
	if status != models.DeliveryCompleted {
		return nil
	}

	if err := tx.Model(&models.Driver{}).
		Where("id = ?", delivery.DriverID).
		Updates(map[string]interface{}{
			"total_deliveries": gorm.Expr("total_deliveries + 1"),
			"is_available":     true,
		}).Error; err != nil {
		return err
	}

	return tx.Model(&models.DeliveryRequest{}).
		Where("id = ?", delivery.RequestID).
		Update("status", models.RequestCompleted).Error
}

// GetDriverStats recomputes the driver's lifetime numbers from a full
// scan on every call
func GetDriverStats(c *gin.Context) {
	driver, ok := driverForUser(c)
	if !ok {
		return
	}

	var deliveries []models.Delivery
	config.DB.Where("driver_id = ?", driver.ID).Find(&deliveries)

	var bids []models.Bid
	config.DB.Where("driver_id = ?", driver.ID).Find(&bids)

	var totalEarnings float64
	completed := 0
	for _, d := range deliveries {
		if d.Status == models.DeliveryCompleted {
			completed++
			totalEarnings += d.FinalPrice
		}
	}

	acceptedBids := 0
	for _, b := range bids {
		if b.Status == models.BidAccepted {
			acceptedBids++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_deliveries":     len(deliveries),
		"completed_deliveries": completed,
		"total_bids":           len(bids),
		"accepted_bids":        acceptedBids,
		"total_earnings":       totalEarnings,
		"rating":               driver.Rating,
	})
}
