package response

import (
	"time"

	"gym-booking/internal/data/entity"
)

type ClassResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CoachName       string    `json:"coach_name"`
	Weekday         int       `json:"weekday"`
	StartTime       string    `json:"start_time"`
	DurationMin     int       `json:"duration_min"`
	MaxCapacity     int       `json:"max_capacity"`
	WaitlistEnabled bool      `json:"waitlist_enabled"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// OccurrenceResponse is one bookable slot on the schedule with live
// availability numbers.
type OccurrenceResponse struct {
	ClassID        string `json:"class_id"`
	ClassName      string `json:"class_name"`
	CoachName      string `json:"coach_name"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	MaxCapacity    int    `json:"max_capacity"`
	ConfirmedCount int    `json:"confirmed_count"`
	SpotsLeft      int    `json:"spots_left"`
	WaitlistLength int    `json:"waitlist_length"`
	IsFull         bool   `json:"is_full"`
}

func ClassToResponse(class *entity.Class) ClassResponse {
	return ClassResponse{
		ID:              class.ID.String(),
		Name:            class.Name,
		Description:     class.Description,
		CoachName:       class.CoachName,
		Weekday:         int(class.Weekday),
		StartTime:       class.StartTime,
		DurationMin:     int(class.Duration.Minutes()),
		MaxCapacity:     class.MaxCapacity,
		WaitlistEnabled: class.WaitlistEnabled,
		IsActive:        class.IsActive,
		CreatedAt:       class.CreatedAt,
	}
}
