package models

import "time"

// BidStatus represents the lifecycle of a driver's bid.
// "rejected" means the customer accepted a competing bid,
// "declined" means the customer turned this bid down directly.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
	BidDeclined BidStatus = "declined"
)

type Bid struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	RequestID  uint            `json:"request_id" gorm:"not null;index"`
	Request    DeliveryRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	DriverID   uint            `json:"driver_id" gorm:"not null;index"`
	Driver     Driver          `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	CustomerID uint            `json:"customer_id" gorm:"not null"`
	BidAmount  float64         `json:"bid_amount" gorm:"not null"`
	Message    string          `json:"message"`
	Status     BidStatus       `json:"status" gorm:"not null;default:'pending'"`

	// Driver display fields snapshotted at bid time so the customer's
	// offer list renders without extra lookups
	DriverName   string    `json:"driver_name"`
	DriverPhone  string    `json:"driver_phone"`
	TruckType    TruckType `json:"truck_type"`
	TruckModel   string    `json:"truck_model"`
	DriverRating float64   `json:"driver_rating"`

	AcceptedAt *time.Time `json:"accepted_at"`
	DeclinedAt *time.Time `json:"declined_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
