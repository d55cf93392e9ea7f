package usecase

import (
	"context"
	"fmt"
	"time"

	"gym-booking/internal/data/entity"
	"gym-booking/internal/data/repository"
	"gym-booking/internal/dto/request"
	"gym-booking/internal/dto/response"
	"gym-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClassService interface {
	CreateClass(ctx context.Context, req *request.CreateClassRequest) (*response.ClassResponse, error)
	UpdateClass(ctx context.Context, classID string, req *request.UpdateClassRequest) (*response.ClassResponse, error)
	DeactivateClass(ctx context.Context, classID string) error
	ListClasses(ctx context.Context) ([]response.ClassResponse, error)
	GetSchedule(ctx context.Context, from string, days int) ([]response.OccurrenceResponse, error)
}

type classService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewClassService(repo *repository.Repository, log *zap.Logger) ClassService {
	return &classService{
		repo: repo,
		log:  log.With(zap.String("service", "class")),
	}
}

func (s *classService) CreateClass(ctx context.Context, req *request.CreateClassRequest) (*response.ClassResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create class validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	// Waitlisting defaults to on; a class has to opt out.
	waitlistEnabled := true
	if req.WaitlistEnabled != nil {
		waitlistEnabled = *req.WaitlistEnabled
	}

	now := time.Now()
	class := &entity.Class{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:            req.Name,
		Description:     req.Description,
		CoachName:       req.CoachName,
		Weekday:         time.Weekday(req.Weekday),
		StartTime:       req.StartTime,
		Duration:        time.Duration(req.DurationMin) * time.Minute,
		MaxCapacity:     req.MaxCapacity,
		WaitlistEnabled: waitlistEnabled,
		IsActive:        true,
	}

	if err := s.repo.Class.Create(ctx, class); err != nil {
		s.log.Error("Failed to create class",
			zap.Error(err),
			zap.String("name", req.Name),
		)
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.log.Info("Class created",
		zap.String("class_id", class.ID.String()),
		zap.String("name", class.Name),
		zap.Int("max_capacity", class.MaxCapacity),
		zap.Bool("waitlist_enabled", class.WaitlistEnabled),
	)

	resp := response.ClassToResponse(class)
	return &resp, nil
}

func (s *classService) UpdateClass(ctx context.Context, classID string, req *request.UpdateClassRequest) (*response.ClassResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update class validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(classID)
	if err != nil {
		return nil, fmt.Errorf("invalid class ID format %s: %w", classID, err)
	}

	class, err := s.repo.Class.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find class: %w", err)
	}
	if class == nil {
		return nil, fmt.Errorf("class %s not found", classID)
	}

	class.Name = req.Name
	class.Description = req.Description
	class.CoachName = req.CoachName
	class.Weekday = time.Weekday(req.Weekday)
	class.StartTime = req.StartTime
	class.Duration = time.Duration(req.DurationMin) * time.Minute
	class.MaxCapacity = req.MaxCapacity
	class.WaitlistEnabled = req.WaitlistEnabled
	class.IsActive = req.IsActive
	class.UpdatedAt = time.Now()

	if err := s.repo.Class.Update(ctx, class); err != nil {
		s.log.Error("Failed to update class",
			zap.Error(err),
			zap.String("class_id", classID),
		)
		return nil, fmt.Errorf("update class %s: %w", classID, err)
	}

	s.log.Info("Class updated", zap.String("class_id", classID))

	resp := response.ClassToResponse(class)
	return &resp, nil
}

func (s *classService) DeactivateClass(ctx context.Context, classID string) error {
	id, err := uuid.Parse(classID)
	if err != nil {
		return fmt.Errorf("invalid class ID format %s: %w", classID, err)
	}

	if err := s.repo.Class.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate class %s: %w", classID, err)
	}

	return nil
}

func (s *classService) ListClasses(ctx context.Context) ([]response.ClassResponse, error) {
	classes, err := s.repo.Class.FindAllActive(ctx)
	if err != nil {
		s.log.Error("Failed to list classes", zap.Error(err))
		return nil, fmt.Errorf("list classes: %w", err)
	}

	items := make([]response.ClassResponse, len(classes))
	for i, class := range classes {
		items[i] = response.ClassToResponse(class)
	}
	return items, nil
}

// GetSchedule expands class definitions to concrete occurrences over the
// window and attaches live availability from the booking ledger.
func (s *classService) GetSchedule(ctx context.Context, from string, days int) ([]response.OccurrenceResponse, error) {
	start, err := utils.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("invalid date %s: %w", from, err)
	}
	if days < 1 {
		days = 7
	}
	if days > 31 {
		days = 31
	}

	var schedule []response.OccurrenceResponse
	for offset := 0; offset < days; offset++ {
		date := start.AddDate(0, 0, offset)

		classes, err := s.repo.Class.FindActiveByWeekday(ctx, date.Weekday())
		if err != nil {
			return nil, fmt.Errorf("get schedule: %w", err)
		}

		for _, class := range classes {
			bookings, err := s.repo.Booking.FindByOccurrence(ctx, class.ID, date)
			if err != nil {
				return nil, fmt.Errorf("get schedule: %w", err)
			}

			var confirmed, waitlisted int
			for _, b := range bookings {
				switch b.Status {
				case entity.BookingStatusConfirmed:
					confirmed++
				case entity.BookingStatusWaitlisted:
					waitlisted++
				}
			}

			spotsLeft := class.MaxCapacity - confirmed
			if spotsLeft < 0 {
				spotsLeft = 0
			}

			schedule = append(schedule, response.OccurrenceResponse{
				ClassID:        class.ID.String(),
				ClassName:      class.Name,
				CoachName:      class.CoachName,
				Date:           date.Format("2006-01-02"),
				StartTime:      class.StartTime,
				MaxCapacity:    class.MaxCapacity,
				ConfirmedCount: confirmed,
				SpotsLeft:      spotsLeft,
				WaitlistLength: waitlisted,
				IsFull:         confirmed >= class.MaxCapacity,
			})
		}
	}

	return schedule, nil
}
