package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"truckdrive-api/config"
	"truckdrive-api/middleware"
	"truckdrive-api/models"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// paginate applies page/limit query params the admin tables use
func paginate(c *gin.Context, query *gorm.DB) *gorm.DB {
	page := cast.ToInt(c.Query("page"))
	if page < 1 {
		page = 1
	}
	limit := cast.ToInt(c.Query("limit"))
	if limit < 1 || limit > 100 {
		limit = 25
	}
	return query.Offset((page - 1) * limit).Limit(limit)
}

// AdminGetStats recomputes the platform overview from full table
// scans on every call — nothing here is cached
func AdminGetStats(c *gin.Context) {
	var users []models.User
	config.DB.Find(&users)

	var drivers []models.Driver
	config.DB.Find(&drivers)

	var requests []models.DeliveryRequest
	config.DB.Find(&requests)

	var deliveries []models.Delivery
	config.DB.Find(&deliveries)

	var bidCount int64
	config.DB.Model(&models.Bid{}).Count(&bidCount)

	usersByRole := map[string]int{}
	for _, u := range users {
		usersByRole[string(u.Role)]++
	}

	requestsByStatus := map[string]int{}
	for _, r := range requests {
		requestsByStatus[string(r.Status)]++
	}

	completedDeliveries := 0
	var totalRevenue float64
	for _, d := range deliveries {
		if d.Status == models.DeliveryCompleted {
			completedDeliveries++
			totalRevenue += d.FinalPrice
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":          len(users),
		"users_by_role":        usersByRole,
		"driver_profiles":      len(drivers),
		"total_requests":       len(requests),
		"requests_by_status":   requestsByStatus,
		"total_bids":           bidCount,
		"total_deliveries":     len(deliveries),
		"completed_deliveries": completedDeliveries,
		"total_revenue":        totalRevenue,
	})
}

// AdminGetAllUsers returns all users — admin only
func AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB.Order("created_at desc")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	paginate(c, query).Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminGetAllDrivers returns all driver profiles — admin only
func AdminGetAllDrivers(c *gin.Context) {
	var drivers []models.Driver
	query := config.DB.Preload("User").Order("created_at desc")
	if city := c.Query("city"); city != "" {
		query = query.Where("current_city = ?", city)
	}
	if available := c.Query("available"); available == "true" {
		query = query.Where("is_available = ?", true)
	}
	paginate(c, query).Find(&drivers)
	c.JSON(http.StatusOK, gin.H{"count": len(drivers), "drivers": drivers})
}

// AdminGetAllRequests returns all delivery requests — admin only
func AdminGetAllRequests(c *gin.Context) {
	var requests []models.DeliveryRequest
	query := config.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("pickup_city = ?", city)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if truckType := c.Query("truck_type"); truckType != "" {
		query = query.Where("truck_type = ?", truckType)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		query = query.Where("proposed_price >= ?", cast.ToFloat64(minPrice))
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		query = query.Where("proposed_price <= ?", cast.ToFloat64(maxPrice))
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("cargo_description LIKE ? OR pickup_location LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	paginate(c, query).Find(&requests)
	c.JSON(http.StatusOK, gin.H{"count": len(requests), "requests": requests})
}

// AdminGetAllBids returns all bids — admin only
func AdminGetAllBids(c *gin.Context) {
	var bids []models.Bid
	query := config.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if driverID := c.Query("driver_id"); driverID != "" {
		query = query.Where("driver_id = ?", driverID)
	}
	paginate(c, query).Find(&bids)
	c.JSON(http.StatusOK, gin.H{"count": len(bids), "bids": bids})
}

// AdminGetAllDeliveries returns all deliveries — admin only
func AdminGetAllDeliveries(c *gin.Context) {
	var deliveries []models.Delivery
	query := config.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if driverID := c.Query("driver_id"); driverID != "" {
		query = query.Where("driver_id = ?", driverID)
	}
	paginate(c, query).Find(&deliveries)
	c.JSON(http.StatusOK, gin.H{"count": len(deliveries), "deliveries": deliveries})
}

// AdminForceDeliveryStatus lets admin override any delivery state
// (emergency use). The state machine is bypassed on purpose, but the
// completion side effects still run so counters stay consistent.
func AdminForceDeliveryStatus(c *gin.Context) {
	deliveryID := c.Param("id")
	var req struct {
		Status models.DeliveryStatus `json:"status" binding:"required"`
		Reason string                `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case models.DeliveryAssigned, models.DeliveryInTransit, models.DeliveryCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown delivery status"})
		return
	}

	var delivery models.Delivery
	if err := config.DB.First(&delivery, deliveryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}

	prevStatus := delivery.Status
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if req.Status == models.DeliveryCompleted && prevStatus != models.DeliveryCompleted {
			return applyDeliveryStatus(tx, &delivery, req.Status)
		}
		return tx.Model(&delivery).Update("status", req.Status).Error
	})
	if err != nil {
		config.Log.Errorw("admin status override failed", "delivery_id", delivery.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update delivery status"})
		return
	}

	config.Log.Warnw("admin delivery status override",
		"admin_id", middleware.GetUserID(c),
		"delivery_id", delivery.ID,
		"from", prevStatus, "to", req.Status,
		"reason", req.Reason)

	c.JSON(http.StatusOK, gin.H{
		"message":         "Delivery status force-updated by admin",
		"delivery_id":     delivery.ID,
		"previous_status": prevStatus,
		"new_status":      req.Status,
	})
}

// AdminDeleteUser removes a user account and its driver profile
func AdminDeleteUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Driver{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		config.Log.Errorw("user deletion failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted", "user_id": user.ID})
}

// ExportDocument is the bulk snapshot of the five primary tables,
// keyed by table name
type ExportDocument struct {
	Users            []models.User            `json:"users"`
	DeliveryRequests []models.DeliveryRequest `json:"deliveryRequests"`
	Drivers          []models.Driver          `json:"drivers"`
	Bids             []models.Bid             `json:"bids"`
	Deliveries       []models.Delivery        `json:"deliveries"`
}

// AdminExportData produces the full-table JSON snapshot
func AdminExportData(c *gin.Context) {
	var doc ExportDocument
	config.DB.Find(&doc.Users)
	config.DB.Find(&doc.DeliveryRequests)
	config.DB.Find(&doc.Drivers)
	config.DB.Find(&doc.Bids)
	config.DB.Find(&doc.Deliveries)

	c.Header("Content-Disposition", "attachment; filename=truckdrive-export-"+time.Now().Format("2006-01-02")+".json")
	c.JSON(http.StatusOK, doc)
}

// AdminImportData replaces rows table-by-table from a snapshot
// document. Only tables present in the document are touched, and the
// whole import is one transaction.
func AdminImportData(c *gin.Context) {
	var doc map[string]json.RawMessage
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imported := map[string]int{}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if raw, ok := doc["users"]; ok {
			var rows []models.User
			if err := json.Unmarshal(raw, &rows); err != nil {
				return err
			}
			if err := replaceTable(tx, &models.User{}, rows); err != nil {
				return err
			}
			imported["users"] = len(rows)
		}
		if raw, ok := doc["deliveryRequests"]; ok {
			var rows []models.DeliveryRequest
			if err := json.Unmarshal(raw, &rows); err != nil {
				return err
			}
			if err := replaceTable(tx, &models.DeliveryRequest{}, rows); err != nil {
				return err
			}
			imported["deliveryRequests"] = len(rows)
		}
		if raw, ok := doc["drivers"]; ok {
			var rows []models.Driver
			if err := json.Unmarshal(raw, &rows); err != nil {
				return err
			}
			if err := replaceTable(tx, &models.Driver{}, rows); err != nil {
				return err
			}
			imported["drivers"] = len(rows)
		}
		if raw, ok := doc["bids"]; ok {
			var rows []models.Bid
			if err := json.Unmarshal(raw, &rows); err != nil {
				return err
			}
			if err := replaceTable(tx, &models.Bid{}, rows); err != nil {
				return err
			}
			imported["bids"] = len(rows)
		}
		if raw, ok := doc["deliveries"]; ok {
			var rows []models.Delivery
			if err := json.Unmarshal(raw, &rows); err != nil {
				return err
			}
			if err := replaceTable(tx, &models.Delivery{}, rows); err != nil {
				return err
			}
			imported["deliveries"] = len(rows)
		}
		return nil
	})
	if err != nil {
		config.Log.Errorw("import failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Import completed", "imported": imported})
}

// replaceTable wipes a table and inserts the given rows
func replaceTable[T any](tx *gorm.DB, model interface{}, rows []T) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// AdminResetData empties every table, messaging included. Destructive
// and unrecoverable.
func AdminResetData(c *gin.Context) {
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		session := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&models.Message{},
			&models.Contact{},
			&models.Delivery{},
			&models.Bid{},
			&models.DeliveryRequest{},
			&models.Driver{},
			&models.User{},
		} {
			if err := session.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.Log.Errorw("reset failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset data"})
		return
	}

	config.Log.Warnw("all application data cleared", "admin_id", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "All data cleared"})
}
