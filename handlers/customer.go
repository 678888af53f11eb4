package handlers

import (
	"errors"
	"net/http"
	"time"

	"truckdrive-api/config"
	"truckdrive-api/middleware"
	"truckdrive-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateRequestRequest struct {
	PickupLocation   string           `json:"pickup_location" binding:"required"`
	DeliveryLocation string           `json:"delivery_location" binding:"required"`
	CargoDescription string           `json:"cargo_description"`
	TruckType        models.TruckType `json:"truck_type" binding:"required"`
	ProposedPrice    float64          `json:"proposed_price" binding:"required,gte=0"`
	RequestedDate    string           `json:"requested_date"`
	RequestedTime    string           `json:"requested_time"`
}

// CreateDeliveryRequest posts a new delivery job (customer only).
// The pickup city is derived from the pickup address so drivers in
// that city can be matched against the request.
func CreateDeliveryRequest(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidTruckType(req.TruckType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid truck type. Must be: small, medium, large, or xlarge"})
		return
	}

	var customer models.User
	if err := config.DB.First(&customer, customerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	request := models.DeliveryRequest{
		CustomerID:       customerID,
		CustomerName:     customer.Name,
		PickupLocation:   req.PickupLocation,
		PickupCity:       models.ExtractCity(req.PickupLocation),
		DeliveryLocation: req.DeliveryLocation,
		CargoDescription: req.CargoDescription,
		TruckType:        req.TruckType,
		ProposedPrice:    req.ProposedPrice,
		RequestedDate:    req.RequestedDate,
		RequestedTime:    req.RequestedTime,
		Status:           models.RequestPending,
		BidCount:         0,
	}
	if err := config.DB.Create(&request).Error; err != nil {
		config.Log.Errorw("request creation failed", "customer_id", customerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create delivery request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Delivery request submitted. Drivers in " + request.PickupCity + " can now see your request.",
		"request": request,
	})
}

// GetMyRequests returns all requests for the logged-in customer
func GetMyRequests(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	var requests []models.DeliveryRequest
	query := config.DB.Where("customer_id = ?", customerID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Order("created_at desc").Find(&requests)
	c.JSON(http.StatusOK, gin.H{"count": len(requests), "requests": requests})
}

// GetRequestDetail returns a single request with its bids (owner only)
func GetRequestDetail(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	requestID := c.Param("id")

	var request models.DeliveryRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery request not found"})
		return
	}
	if request.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This request does not belong to you"})
		return
	}

	var bids []models.Bid
	config.DB.Where("request_id = ?", request.ID).Order("created_at asc").Find(&bids)

	c.JSON(http.StatusOK, gin.H{"request": request, "bids": bids})
}

// GetRequestBids lists the bids on one of the customer's requests,
// pending offers first
func GetRequestBids(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	requestID := c.Param("id")

	var request models.DeliveryRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery request not found"})
		return
	}
	if request.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This request does not belong to you"})
		return
	}

	var bids []models.Bid
	config.DB.Where("request_id = ?", request.ID).
		Order("status = 'pending' desc").
		Order("bid_amount asc").
		Find(&bids)

	c.JSON(http.StatusOK, gin.H{"count": len(bids), "bids": bids})
}

var errRequestNotPending = errors.New("request is no longer pending")

// AcceptBid accepts one driver's offer. The whole sequence — mark the
// bid accepted, assign the request, reject competing pending bids,
// spawn the delivery and contact, take the driver offline — runs in a
// single transaction so a concurrent acceptance can never leave the
// request half-assigned.
func AcceptBid(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	bidID := c.Param("id")

	var bid models.Bid
	if err := config.DB.First(&bid, bidID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bid not found"})
		return
	}

	var request models.DeliveryRequest
	if err := config.DB.First(&request, bid.RequestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery request not found"})
		return
	}
	if request.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This bid does not belong to your request"})
		return
	}

	var delivery models.Delivery
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		// Re-read inside the transaction: the request or bid may have
		// changed between the authz check and here
		if err := tx.First(&request, bid.RequestID).Error; err != nil {
			return err
		}
		if err := tx.First(&bid, bid.ID).Error; err != nil {
			return err
		}
		if request.Status != models.RequestPending || bid.Status != models.BidPending {
			return errRequestNotPending
		}

		now := time.Now()
		if err := tx.Model(&bid).Updates(map[string]interface{}{
			"status":      models.BidAccepted,
			"accepted_at": now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&request).Updates(map[string]interface{}{
			"status":             models.RequestAccepted,
			"assigned_driver_id": bid.DriverID,
			"final_price":        bid.BidAmount,
			"accepted_at":        now,
		}).Error; err != nil {
			return err
		}

		// Every other pending bid on the request loses
		if err := tx.Model(&models.Bid{}).
			Where("request_id = ? AND id <> ? AND status = ?", bid.RequestID, bid.ID, models.BidPending).
			Update("status", models.BidRejected).Error; err != nil {
			return err
		}

		delivery = models.Delivery{
			RequestID:         bid.RequestID,
			DriverID:          bid.DriverID,
			CustomerID:        request.CustomerID,
			FinalPrice:        bid.BidAmount,
			Status:            models.DeliveryAssigned,
			EstimatedDelivery: now.Add(3 * time.Hour),
		}
		if err := tx.Create(&delivery).Error; err != nil {
			return err
		}

		contact := models.Contact{
			RequestID:  bid.RequestID,
			CustomerID: request.CustomerID,
			DriverID:   bid.DriverID,
			BidID:      bid.ID,
			Status:     "active",
		}
		if err := tx.Create(&contact).Error; err != nil {
			return err
		}

		// Assigned driver is busy until the delivery finishes
		return tx.Model(&models.Driver{}).
			Where("id = ?", bid.DriverID).
			Update("is_available", false).Error
	})
	if err != nil {
		if errors.Is(err, errRequestNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "This request has already been assigned"})
			return
		}
		config.Log.Errorw("bid acceptance failed", "bid_id", bid.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept bid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Bid accepted. A delivery has been created and the driver has been notified.",
		"bid_id":   bid.ID,
		"delivery": delivery,
	})
}

// DeclineBid turns down one driver's offer without touching the
// request or any competing bid
func DeclineBid(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	bidID := c.Param("id")

	var bid models.Bid
	if err := config.DB.First(&bid, bidID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bid not found"})
		return
	}

	var request models.DeliveryRequest
	if err := config.DB.First(&request, bid.RequestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery request not found"})
		return
	}
	if request.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This bid does not belong to your request"})
		return
	}
	if bid.Status != models.BidPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Only pending bids can be declined"})
		return
	}

	now := time.Now()
	config.DB.Model(&bid).Updates(map[string]interface{}{
		"status":      models.BidDeclined,
		"declined_at": now,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Bid declined", "bid_id": bid.ID})
}

// GetCustomerStats recomputes the customer's lifetime numbers from a
// full scan on every call
func GetCustomerStats(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	var requests []models.DeliveryRequest
	config.DB.Where("customer_id = ?", customerID).Find(&requests)

	var deliveries []models.Delivery
	config.DB.Where("customer_id = ?", customerID).Find(&deliveries)

	var totalSpent float64
	completed := 0
	for _, d := range deliveries {
		if d.Status == models.DeliveryCompleted {
			completed++
			totalSpent += d.FinalPrice
		}
	}

	totalBids := 0
	for _, r := range requests {
		totalBids += r.BidCount
	}
	avgBidCount := 0.0
	if len(requests) > 0 {
		avgBidCount = float64(totalBids) / float64(len(requests))
	}

	c.JSON(http.StatusOK, gin.H{
		"total_requests":       len(requests),
		"completed_deliveries": completed,
		"total_spent":          totalSpent,
		"average_bid_count":    avgBidCount,
	})
}
