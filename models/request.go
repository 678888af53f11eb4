package models

import (
	"strings"
	"time"
)

// RequestStatus represents the lifecycle of a delivery request
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

// IDList is a list of entity ids stored as a JSON column
type IDList []uint

// Contains reports whether id is present in the list
func (l IDList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

type DeliveryRequest struct {
	ID               uint          `json:"id" gorm:"primaryKey"`
	CustomerID       uint          `json:"customer_id" gorm:"not null;index"`
	Customer         User          `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	CustomerName     string        `json:"customer_name"` // snapshot for request cards
	PickupLocation   string        `json:"pickup_location" gorm:"not null"`
	PickupCity       string        `json:"pickup_city" gorm:"index"`
	DeliveryLocation string        `json:"delivery_location" gorm:"not null"`
	CargoDescription string        `json:"cargo_description"`
	TruckType        TruckType     `json:"truck_type" gorm:"not null"`
	ProposedPrice    float64       `json:"proposed_price"`
	RequestedDate    string        `json:"requested_date"`
	RequestedTime    string        `json:"requested_time"`
	Status           RequestStatus `json:"status" gorm:"not null;default:'pending';index"`
	BidCount         int           `json:"bid_count" gorm:"default:0"`
	AssignedDriverID *uint         `json:"assigned_driver_id"`
	FinalPrice       float64       `json:"final_price"`
	DeclinedDrivers  IDList        `json:"declined_drivers" gorm:"serializer:json"`
	AcceptedAt       *time.Time    `json:"accepted_at"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ExtractCity derives the city token from a free-form address string.
// Addresses are expected as "street, [area,] city, region": the
// second-to-last comma-separated token is the city. An address without
// commas is treated as a bare city name.
func ExtractCity(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	return strings.TrimSpace(location)
}
