package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-booking/internal/data/entity"
	"gym-booking/internal/data/repository"
	"gym-booking/internal/dto/request"
	"gym-booking/internal/dto/response"
	"gym-booking/pkg/metrics"
	"gym-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService is the admission engine: it decides whether a reserve
// request gets a confirmed spot or a waitlist position, keeps waitlist
// positions contiguous, and promotes the head of the waitlist when a
// confirmed spot frees up. All state lives in the ledger; the service itself
// is stateless and safe to run in any number of instances.
type BookingService interface {
	Reserve(ctx context.Context, userID string, req *request.ReserveRequest) (*response.BookingResponse, error)
	Cancel(ctx context.Context, bookingID, cancelledBy string, admin bool) (*response.BookingResponse, error)
	CheckIn(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	HasActiveBooking(ctx context.Context, userID, classID, date string) (bool, error)
	GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetOccurrenceRoster(ctx context.Context, classID, date string) (*response.RosterResponse, error)
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) Reserve(ctx context.Context, userID string, req *request.ReserveRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reserve validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	class, date, err := s.resolveOccurrence(ctx, req.ClassID, req.Date)
	if err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = s.repo.Booking.WithOccurrenceLock(ctx, class.ID, func(tx repository.OccurrenceTx) error {
		// Guard 1: one active booking per member per occurrence.
		existing, err := tx.FindActive(ctx, userUUID, class.ID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyBooked
		}

		now := time.Now()
		b := &entity.Booking{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			UserID:    userUUID,
			ClassID:   class.ID,
			ClassDate: date,
			Status:    entity.BookingStatusConfirmed,
		}

		// Guard 2: capacity. The class row lock makes count-then-insert
		// atomic, so two requests racing for the last spot serialize here.
		confirmed, err := tx.CountConfirmed(ctx, class.ID, date)
		if err != nil {
			return err
		}

		if confirmed >= class.MaxCapacity {
			if !class.WaitlistEnabled {
				return ErrOccurrenceFull
			}
			waitlisted, err := tx.FindWaitlisted(ctx, class.ID, date)
			if err != nil {
				return err
			}
			position := len(waitlisted) + 1
			b.Status = entity.BookingStatusWaitlisted
			b.WaitlistPosition = &position
		}

		if err := tx.Insert(ctx, b); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOccurrenceNotFound
		}
		if isDomainError(err) {
			metrics.ReservationProcessed("rejected")
			return nil, err
		}
		s.log.Error("Reserve failed",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("class_id", class.ID.String()),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	metrics.ReservationProcessed(string(booking.Status))
	if booking.Status == entity.BookingStatusWaitlisted {
		metrics.SetWaitlistLength(class.ID.String(), *booking.WaitlistPosition)
	}

	s.log.Info("Reservation processed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", userID),
		zap.String("class_id", class.ID.String()),
		zap.String("date", req.Date),
		zap.String("status", string(booking.Status)),
	)

	return response.BookingToResponse(booking, class), nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID, cancelledBy string, admin bool) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", bookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if !admin && booking.UserID.String() != cancelledBy {
		return nil, ErrForbidden
	}

	class, err := s.repo.Class.FindByID(ctx, booking.ClassID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var (
		cancelled   *entity.Booking
		promoted    *entity.Booking
		priorStatus entity.BookingStatus
		remaining   int
	)
	err = s.repo.Booking.WithOccurrenceLock(ctx, booking.ClassID, func(tx repository.OccurrenceTx) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrBookingNotFound
		}

		switch current.Status {
		case entity.BookingStatusCancelled:
			return ErrAlreadyCancelled
		case entity.BookingStatusAttended:
			return ErrNotCancellable
		}
		priorStatus = current.Status

		if err := tx.SetStatus(ctx, current.ID, entity.BookingStatusCancelled, nil); err != nil {
			return err
		}

		// The cancelled row is already excluded here, so the slice is the
		// waitlist as it should look, in creation (FIFO) order.
		waitlisted, err := tx.FindWaitlisted(ctx, current.ClassID, current.ClassDate)
		if err != nil {
			return err
		}

		if priorStatus == entity.BookingStatusConfirmed && len(waitlisted) > 0 {
			head := waitlisted[0]
			if err := tx.SetStatus(ctx, head.ID, entity.BookingStatusConfirmed, nil); err != nil {
				return err
			}
			promoted = head
			waitlisted = waitlisted[1:]
		}

		// Recompute positions 1..N from creation order instead of patching
		// individual rows; re-running this after a retry yields the same result.
		ids := make([]uuid.UUID, len(waitlisted))
		for i, w := range waitlisted {
			ids[i] = w.ID
		}
		if err := tx.RewritePositions(ctx, ids); err != nil {
			return err
		}
		remaining = len(waitlisted)

		now := time.Now()
		current.Status = entity.BookingStatusCancelled
		current.WaitlistPosition = nil
		current.CancelledAt = &now
		cancelled = current
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.log.Error("Cancel failed",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	metrics.BookingCancelled(string(priorStatus))
	metrics.SetWaitlistLength(booking.ClassID.String(), remaining)
	if promoted != nil {
		metrics.WaitlistPromoted()
		s.log.Info("Waitlist booking promoted",
			zap.String("booking_id", promoted.ID.String()),
			zap.String("user_id", promoted.UserID.String()),
			zap.String("class_id", booking.ClassID.String()),
		)
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("cancelled_by", cancelledBy),
		zap.String("prior_status", string(priorStatus)),
	)

	return response.BookingToResponse(cancelled, class), nil
}

func (s *bookingService) CheckIn(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", bookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	class, err := s.repo.Class.FindByID(ctx, booking.ClassID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var updated *entity.Booking
	err = s.repo.Booking.WithOccurrenceLock(ctx, booking.ClassID, func(tx repository.OccurrenceTx) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrBookingNotFound
		}
		if current.Status != entity.BookingStatusConfirmed {
			return ErrNotConfirmed
		}

		if err := tx.SetStatus(ctx, current.ID, entity.BookingStatusAttended, nil); err != nil {
			return err
		}

		current.Status = entity.BookingStatusAttended
		updated = current
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.log.Error("Check-in failed",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.log.Info("Member checked in",
		zap.String("booking_id", bookingID),
		zap.String("user_id", updated.UserID.String()),
	)

	return response.BookingToResponse(updated, class), nil
}

func (s *bookingService) HasActiveBooking(ctx context.Context, userID, classID, date string) (bool, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return false, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}
	classUUID, err := uuid.Parse(classID)
	if err != nil {
		return false, fmt.Errorf("invalid class ID format %s: %w", classID, err)
	}
	day, err := utils.ParseDate(date)
	if err != nil {
		return false, fmt.Errorf("invalid date %s: %w", date, err)
	}

	booking, err := s.repo.Booking.FindActiveByOccurrence(ctx, userUUID, classUUID, day)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return booking != nil, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	items := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		class, _ := s.repo.Class.FindByID(ctx, b.ClassID)
		items[i] = *response.BookingToResponse(b, class)
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

func (s *bookingService) GetOccurrenceRoster(ctx context.Context, classID, date string) (*response.RosterResponse, error) {
	class, day, err := s.resolveOccurrence(ctx, classID, date)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.Booking.FindByOccurrence(ctx, class.ID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return response.RosterToResponse(class, day, bookings), nil
}

// resolveOccurrence maps (classID, date) to a real occurrence: the class must
// exist, be active, run on that weekday, and the date must not be in the past.
func (s *bookingService) resolveOccurrence(ctx context.Context, classID, date string) (*entity.Class, time.Time, error) {
	classUUID, err := uuid.Parse(classID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid class ID format %s: %w", classID, err)
	}

	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid date %s: %w", date, err)
	}

	class, err := s.repo.Class.FindByID(ctx, classUUID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if class == nil || !class.OccursOn(day) {
		return nil, time.Time{}, ErrOccurrenceNotFound
	}

	if day.Before(utils.Today()) {
		return nil, time.Time{}, ErrOccurrenceNotFound
	}

	return class, day, nil
}
