package request

type CreateClassRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Description     string `json:"description" validate:"max=500"`
	CoachName       string `json:"coach_name" validate:"required,min=2,max=100"`
	Weekday         int    `json:"weekday" validate:"min=0,max=6"`
	StartTime       string `json:"start_time" validate:"required,datetime=15:04"`
	DurationMin     int    `json:"duration_min" validate:"required,min=15,max=240"`
	MaxCapacity     int    `json:"max_capacity" validate:"required,min=1,max=500"`
	WaitlistEnabled *bool  `json:"waitlist_enabled,omitempty"`
}

type UpdateClassRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Description     string `json:"description" validate:"max=500"`
	CoachName       string `json:"coach_name" validate:"required,min=2,max=100"`
	Weekday         int    `json:"weekday" validate:"min=0,max=6"`
	StartTime       string `json:"start_time" validate:"required,datetime=15:04"`
	DurationMin     int    `json:"duration_min" validate:"required,min=15,max=240"`
	MaxCapacity     int    `json:"max_capacity" validate:"required,min=1,max=500"`
	WaitlistEnabled bool   `json:"waitlist_enabled"`
	IsActive        bool   `json:"is_active"`
}
