package models

import "time"

// Contact is the messaging channel opened between a customer and a
// driver once a bid is accepted
type Contact struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	RequestID     uint       `json:"request_id" gorm:"not null;index"`
	CustomerID    uint       `json:"customer_id" gorm:"not null;index"`
	DriverID      uint       `json:"driver_id" gorm:"not null;index"`
	BidID         uint       `json:"bid_id" gorm:"not null"`
	Status        string     `json:"status" gorm:"default:'active'"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	MessageCount  int        `json:"message_count" gorm:"default:0"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ContactID uint      `json:"contact_id" gorm:"not null;index"`
	SenderID  uint      `json:"sender_id" gorm:"not null"`
	Body      string    `json:"body" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
