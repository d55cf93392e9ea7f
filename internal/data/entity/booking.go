package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusWaitlisted BookingStatus = "waitlisted"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusAttended   BookingStatus = "attended"
)

// Booking is one member's claim on a class occurrence (class + date).
// WaitlistPosition is set only while Status is waitlisted; positions for one
// occurrence are contiguous 1..N in creation order.
type Booking struct {
	BaseNoDelete
	UserID           uuid.UUID     `db:"user_id"`
	ClassID          uuid.UUID     `db:"class_id"`
	ClassDate        time.Time     `db:"class_date"`
	Status           BookingStatus `db:"status"`
	WaitlistPosition *int          `db:"waitlist_position"`
	CancelledAt      *time.Time    `db:"cancelled_at"`
}

// Active reports whether the booking still holds a claim on its occurrence.
func (b *Booking) Active() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusWaitlisted
}
