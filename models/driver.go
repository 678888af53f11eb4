package models

import "time"

// TruckType is the fixed set of truck sizes a driver can operate
// and a customer can request
type TruckType string

const (
	TruckSmall  TruckType = "small"
	TruckMedium TruckType = "medium"
	TruckLarge  TruckType = "large"
	TruckXLarge TruckType = "xlarge"
)

// ValidTruckType reports whether t is a member of the truck-type enum
func ValidTruckType(t TruckType) bool {
	switch t {
	case TruckSmall, TruckMedium, TruckLarge, TruckXLarge:
		return true
	}
	return false
}

// Driver is the driver profile linked 1:1 to a user account.
// Location fields are what city-based request matching runs on.
type Driver struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	UserID             uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	User               User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	TruckType          TruckType  `json:"truck_type" gorm:"not null"`
	TruckModel         string     `json:"truck_model"`
	LicensePlate       string     `json:"license_plate"`
	Rating             float64    `json:"rating" gorm:"default:5.0"`
	IsAvailable        bool       `json:"is_available" gorm:"default:true"`
	CurrentLocation    string     `json:"current_location"`
	CurrentCity        string     `json:"current_city"`
	LastLocationUpdate *time.Time `json:"last_location_update"`
	TotalDeliveries    int        `json:"total_deliveries" gorm:"default:0"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
