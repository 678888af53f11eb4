package handlers

import (
	"net/http"
	"time"

	"truckdrive-api/config"
	"truckdrive-api/middleware"
	"truckdrive-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// contactParty checks that the caller is either the customer or the
// driver on the contact, and loads the contact
func contactParty(c *gin.Context) (*models.Contact, bool) {
	userID := middleware.GetUserID(c)
	contactID := c.Param("id")

	var contact models.Contact
	if err := config.DB.First(&contact, contactID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return nil, false
	}

	if contact.CustomerID == userID {
		return &contact, true
	}
	var driver models.Driver
	if err := config.DB.First(&driver, contact.DriverID).Error; err == nil && driver.UserID == userID {
		return &contact, true
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "You are not a party to this contact"})
	return nil, false
}

// GetMyContacts lists the caller's contacts, whichever side of the
// marketplace they are on
func GetMyContacts(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	var contacts []models.Contact
	if role == models.RoleDriver {
		var driver models.Driver
		if err := config.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver profile not found. Complete your driver profile first."})
			return
		}
		config.DB.Where("driver_id = ?", driver.ID).Order("updated_at desc").Find(&contacts)
	} else {
		config.DB.Where("customer_id = ?", userID).Order("updated_at desc").Find(&contacts)
	}

	c.JSON(http.StatusOK, gin.H{"count": len(contacts), "contacts": contacts})
}

// GetMessages returns the message history of a contact (parties only)
func GetMessages(c *gin.Context) {
	contact, ok := contactParty(c)
	if !ok {
		return
	}

	var messages []models.Message
	config.DB.Where("contact_id = ?", contact.ID).Order("created_at asc").Find(&messages)
	c.JSON(http.StatusOK, gin.H{"count": len(messages), "messages": messages})
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// SendMessage appends a message to the contact and rolls the contact's
// last-message summary forward
func SendMessage(c *gin.Context) {
	contact, ok := contactParty(c)
	if !ok {
		return
	}
	senderID := middleware.GetUserID(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := models.Message{
		ContactID: contact.ID,
		SenderID:  senderID,
		Body:      req.Body,
	}

	now := time.Now()
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(contact).Updates(map[string]interface{}{
			"last_message":    req.Body,
			"last_message_at": now,
			"message_count":   gorm.Expr("message_count + 1"),
		}).Error
	})
	if err != nil {
		config.Log.Errorw("message send failed", "contact_id", contact.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message sent", "sent": message})
}
