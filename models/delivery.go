package models

import "time"

// DeliveryStatus represents all possible states of a delivery run
type DeliveryStatus string

const (
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryInTransit DeliveryStatus = "in-transit"
	DeliveryCompleted DeliveryStatus = "completed"
)

// Delivery is the execution record spawned when a bid is accepted.
// One delivery per accepted request.
type Delivery struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	RequestID         uint            `json:"request_id" gorm:"uniqueIndex;not null"`
	Request           DeliveryRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	DriverID          uint            `json:"driver_id" gorm:"not null;index"`
	Driver            Driver          `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	CustomerID        uint            `json:"customer_id" gorm:"not null;index"`
	FinalPrice        float64         `json:"final_price"`
	Status            DeliveryStatus  `json:"status" gorm:"not null;default:'assigned'"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	CompletedAt       *time.Time      `json:"completed_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
