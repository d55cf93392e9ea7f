package entity

import "time"

// Class is a recurring class definition: it runs every week on Weekday at
// StartTime. One calendar date of a class is an occurrence; occurrences are
// implicit, there is no row per occurrence.
type Class struct {
	Base
	Name            string        `db:"name"`
	Description     string        `db:"description"`
	CoachName       string        `db:"coach_name"`
	Weekday         time.Weekday  `db:"weekday"`
	StartTime       string        `db:"start_time"` // "18:30"
	Duration        time.Duration `db:"duration_min"`
	MaxCapacity     int           `db:"max_capacity"`
	WaitlistEnabled bool          `db:"waitlist_enabled"`
	IsActive        bool          `db:"is_active"`
}

// OccursOn reports whether the class has an occurrence on the given date.
func (c *Class) OccursOn(date time.Time) bool {
	return c.IsActive && date.Weekday() == c.Weekday
}
