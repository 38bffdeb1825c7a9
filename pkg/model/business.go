package model

import "time"

type BusinessType string

const (
	BusinessTypeCarWash     BusinessType = "car_wash"
	BusinessTypeRepairShop  BusinessType = "repair_shop"
	BusinessTypeTireService BusinessType = "tire_service"
	BusinessTypeBeautySalon BusinessType = "beauty_salon"
)

var knownBusinessTypes = map[BusinessType]struct{}{
	BusinessTypeCarWash:     {},
	BusinessTypeRepairShop:  {},
	BusinessTypeTireService: {},
	BusinessTypeBeautySalon: {},
}

// Known reports whether t is one of the categories this build understands.
// Stored records may carry newer categories; those are passed through as-is.
func (t BusinessType) Known() bool {
	_, ok := knownBusinessTypes[t]
	return ok
}

// ParseBusinessType is strict: request input must name a known category.
func ParseBusinessType(s string) (BusinessType, bool) {
	t := BusinessType(s)
	return t, t.Known()
}

type Point struct {
	Lat float64 `json:"lat" bson:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" bson:"lon" validate:"gte=-180,lte=180"`
}

type Business struct {
	ID          string       `json:"id" bson:"_id,omitempty"`
	Name        string       `json:"name" bson:"name"`
	Type        BusinessType `json:"type" bson:"type"`
	Address     string       `json:"address" bson:"address"`
	Location    Point        `json:"location" bson:"location"`
	Phone       string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Email       string       `json:"email,omitempty" bson:"email,omitempty"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	IsActive    bool         `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
}

// GeoCandidate is the projection GeoIndex scans: just enough to score and order.
type GeoCandidate struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name"`
	Location Point  `bson:"location"`
}

type BusinessFilter struct {
	Type *BusinessType
	Text string
}

type Service struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	BusinessID      string    `json:"business_id" bson:"business_id"`
	Name            string    `json:"name" bson:"name"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty"`
	Price           float64   `json:"price" bson:"price"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes"`
	IsActive        bool      `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

type Employee struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	BusinessID string    `json:"business_id" bson:"business_id"`
	Name       string    `json:"name" bson:"name"`
	Position   string    `json:"position,omitempty" bson:"position,omitempty"`
	IsActive   bool      `json:"is_active" bson:"is_active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type BusinessDetails struct {
	Business *Business          `json:"business"`
	Status   AvailabilityStatus `json:"status"`
	Services []*Service         `json:"services"`
}
