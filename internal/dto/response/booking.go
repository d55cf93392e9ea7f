package response

import (
	"time"

	"gym-booking/internal/data/entity"
)

type BookingResponse struct {
	ID               string               `json:"id"`
	UserID           string               `json:"user_id"`
	ClassID          string               `json:"class_id"`
	ClassName        string               `json:"class_name,omitempty"`
	CoachName        string               `json:"coach_name,omitempty"`
	Date             string               `json:"date"`
	StartTime        string               `json:"start_time,omitempty"`
	Status           entity.BookingStatus `json:"status"`
	WaitlistPosition *int                 `json:"waitlist_position,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	CancelledAt      *time.Time           `json:"cancelled_at,omitempty"`
}

type RosterResponse struct {
	ClassID        string            `json:"class_id"`
	ClassName      string            `json:"class_name"`
	Date           string            `json:"date"`
	MaxCapacity    int               `json:"max_capacity"`
	ConfirmedCount int               `json:"confirmed_count"`
	SpotsLeft      int               `json:"spots_left"`
	Confirmed      []BookingResponse `json:"confirmed"`
	Waitlist       []BookingResponse `json:"waitlist"`
	Attended       []BookingResponse `json:"attended,omitempty"`
}

func BookingToResponse(booking *entity.Booking, class *entity.Class) *BookingResponse {
	resp := &BookingResponse{
		ID:               booking.ID.String(),
		UserID:           booking.UserID.String(),
		ClassID:          booking.ClassID.String(),
		Date:             booking.ClassDate.Format("2006-01-02"),
		Status:           booking.Status,
		WaitlistPosition: booking.WaitlistPosition,
		CreatedAt:        booking.CreatedAt,
		CancelledAt:      booking.CancelledAt,
	}
	if class != nil {
		resp.ClassName = class.Name
		resp.CoachName = class.CoachName
		resp.StartTime = class.StartTime
	}
	return resp
}

func RosterToResponse(class *entity.Class, date time.Time, bookings []*entity.Booking) *RosterResponse {
	roster := &RosterResponse{
		ClassID:     class.ID.String(),
		ClassName:   class.Name,
		Date:        date.Format("2006-01-02"),
		MaxCapacity: class.MaxCapacity,
	}

	for _, b := range bookings {
		item := *BookingToResponse(b, class)
		switch b.Status {
		case entity.BookingStatusConfirmed:
			roster.Confirmed = append(roster.Confirmed, item)
		case entity.BookingStatusWaitlisted:
			roster.Waitlist = append(roster.Waitlist, item)
		case entity.BookingStatusAttended:
			roster.Attended = append(roster.Attended, item)
		}
	}

	// Waitlist entries come back in creation order, which matches their
	// contiguous positions; sort not needed.
	roster.ConfirmedCount = len(roster.Confirmed)
	roster.SpotsLeft = class.MaxCapacity - roster.ConfirmedCount
	if roster.SpotsLeft < 0 {
		roster.SpotsLeft = 0
	}

	return roster
}
