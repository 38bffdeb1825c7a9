package model

import (
	"time"
)

const (
	SlotDateFormat = "2006-01-02"
	SlotTimeFormat = "15:04"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Known() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(s)
	return st, st.Known()
}

// Requester is either a guest or an identified user.
type Requester struct {
	userID string
}

func Guest() Requester {
	return Requester{}
}

func User(id string) Requester {
	return Requester{userID: id}
}

func (r Requester) IsGuest() bool {
	return r.userID == ""
}

func (r Requester) UserID() (string, bool) {
	return r.userID, r.userID != ""
}

type Booking struct {
	ID             string        `json:"id" bson:"_id,omitempty"`
	BusinessID     string        `json:"business_id" bson:"business_id"`
	ServiceID      string        `json:"service_id" bson:"service_id"`
	EmployeeID     string        `json:"employee_id,omitempty" bson:"employee_id,omitempty"`
	UserID         string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	SlotDate       string        `json:"date" bson:"slot_date"`
	SlotTime       string        `json:"time" bson:"slot_time"`
	Status         BookingStatus `json:"status" bson:"status"`
	ClientName     string        `json:"client_name" bson:"client_name"`
	ClientPhone    string        `json:"client_phone" bson:"client_phone"`
	Notes          string        `json:"notes,omitempty" bson:"notes,omitempty"`
	CameThroughApp bool          `json:"came_through_app" bson:"came_through_app"`
	IdempotencyKey string        `json:"-" bson:"idempotency_key,omitempty"`
	RequestHash    string        `json:"-" bson:"request_hash,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) Requester() Requester {
	if b.UserID == "" {
		return Guest()
	}
	return User(b.UserID)
}

type BookingRequest struct {
	BusinessID  string `json:"business_id" validate:"required,mongodb"`
	ServiceID   string `json:"service_id" validate:"required,mongodb"`
	EmployeeID  string `json:"employee_id,omitempty" validate:"omitempty,mongodb"`
	Date        string `json:"date" validate:"required,slot_date"`
	Time        string `json:"time" validate:"required,slot_time"`
	ClientName  string `json:"client_name" validate:"required,min=1,max=100"`
	ClientPhone string `json:"client_phone" validate:"required,min=5,max=32"`
	Notes       string `json:"notes,omitempty" validate:"max=1000"`
}

type BookingFilter struct {
	Status     *BookingStatus
	EmployeeID string
}
