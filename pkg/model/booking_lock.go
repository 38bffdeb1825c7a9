package model

import (
	"fmt"
	"time"
)

// SlotLock is an advisory lock held while checking an employee's slot for conflicts.
// Expired locks are removed by a TTL index on expires_at.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func SlotLockID(businessID, employeeID, date, slotTime string) string {
	return fmt.Sprintf("slot_lock_%s_%s_%s_%s", businessID, employeeID, date, slotTime)
}
