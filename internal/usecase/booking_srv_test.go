package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gym-booking/internal/data/entity"
	"gym-booking/internal/dto/request"
	"gym-booking/internal/dto/response"
	"gym-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingEnv(maxCapacity int, waitlistEnabled bool) (BookingService, *fakeStore, *entity.Class, string) {
	store := newFakeStore()

	date := utils.Today().AddDate(0, 0, 7)
	now := time.Now()
	class := &entity.Class{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:            "Morning HIIT",
		CoachName:       "Dana",
		Weekday:         date.Weekday(),
		StartTime:       "07:00",
		Duration:        time.Hour,
		MaxCapacity:     maxCapacity,
		WaitlistEnabled: waitlistEnabled,
		IsActive:        true,
	}
	store.addClass(class)

	svc := NewBookingService(newTestRepo(store), zap.NewNop())
	return svc, store, class, date.Format("2006-01-02")
}

func reserve(t *testing.T, svc BookingService, userID uuid.UUID, class *entity.Class, date string) *response.BookingResponse {
	t.Helper()
	resp, err := svc.Reserve(context.Background(), userID.String(), &request.ReserveRequest{
		ClassID: class.ID.String(),
		Date:    date,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

// waitlistPositions returns the positions of waitlisted bookings for the
// occurrence, in creation order.
func waitlistPositions(t *testing.T, store *fakeStore, classID uuid.UUID, date string) []int {
	t.Helper()
	day, err := utils.ParseDate(date)
	require.NoError(t, err)

	var out []int
	for _, b := range store.snapshot(classID, day) {
		if b.Status == entity.BookingStatusWaitlisted {
			require.NotNil(t, b.WaitlistPosition, "waitlisted booking %s has no position", b.ID)
			out = append(out, *b.WaitlistPosition)
		}
	}
	return out
}

func confirmedCount(store *fakeStore, classID uuid.UUID, date string) int {
	day, _ := utils.ParseDate(date)
	count := 0
	for _, b := range store.snapshot(classID, day) {
		if b.Status == entity.BookingStatusConfirmed {
			count++
		}
	}
	return count
}

func TestReserveConfirmsUpToCapacity(t *testing.T) {
	svc, store, class, date := newBookingEnv(2, true)

	first := reserve(t, svc, uuid.New(), class, date)
	assert.Equal(t, entity.BookingStatusConfirmed, first.Status)
	assert.Nil(t, first.WaitlistPosition)

	second := reserve(t, svc, uuid.New(), class, date)
	assert.Equal(t, entity.BookingStatusConfirmed, second.Status)

	third := reserve(t, svc, uuid.New(), class, date)
	assert.Equal(t, entity.BookingStatusWaitlisted, third.Status)
	require.NotNil(t, third.WaitlistPosition)
	assert.Equal(t, 1, *third.WaitlistPosition)

	fourth := reserve(t, svc, uuid.New(), class, date)
	require.NotNil(t, fourth.WaitlistPosition)
	assert.Equal(t, 2, *fourth.WaitlistPosition)

	assert.Equal(t, 2, confirmedCount(store, class.ID, date))
	assert.Equal(t, []int{1, 2}, waitlistPositions(t, store, class.ID, date))
}

func TestReserveRejectsDuplicateActiveBooking(t *testing.T) {
	svc, store, class, date := newBookingEnv(5, true)
	userID := uuid.New()

	reserve(t, svc, userID, class, date)

	_, err := svc.Reserve(context.Background(), userID.String(), &request.ReserveRequest{
		ClassID: class.ID.String(),
		Date:    date,
	})
	assert.ErrorIs(t, err, ErrAlreadyBooked)

	day, _ := utils.ParseDate(date)
	assert.Len(t, store.snapshot(class.ID, day), 1)
}

func TestReserveFullClassWithWaitlistDisabled(t *testing.T) {
	svc, store, class, date := newBookingEnv(1, false)

	reserve(t, svc, uuid.New(), class, date)

	_, err := svc.Reserve(context.Background(), uuid.New().String(), &request.ReserveRequest{
		ClassID: class.ID.String(),
		Date:    date,
	})
	assert.ErrorIs(t, err, ErrOccurrenceFull)

	day, _ := utils.ParseDate(date)
	assert.Len(t, store.snapshot(class.ID, day), 1)
}

func TestReserveUnknownOccurrence(t *testing.T) {
	svc, store, class, date := newBookingEnv(10, true)

	day, _ := utils.ParseDate(date)
	now := time.Now()
	inactive := &entity.Class{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:        "Retired Spin",
		Weekday:     day.Weekday(),
		MaxCapacity: 10,
		IsActive:    false,
	}
	store.addClass(inactive)

	tests := []struct {
		name    string
		classID string
		date    string
	}{
		{"unknown class", uuid.New().String(), date},
		{"wrong weekday", class.ID.String(), day.AddDate(0, 0, 1).Format("2006-01-02")},
		{"past date", class.ID.String(), utils.Today().AddDate(0, 0, -7).Format("2006-01-02")},
		{"inactive class", inactive.ID.String(), date},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(context.Background(), uuid.New().String(), &request.ReserveRequest{
				ClassID: tt.classID,
				Date:    tt.date,
			})
			assert.ErrorIs(t, err, ErrOccurrenceNotFound)
		})
	}
}

func TestReserveValidation(t *testing.T) {
	svc, _, class, date := newBookingEnv(10, true)

	tests := []struct {
		name string
		req  *request.ReserveRequest
	}{
		{"malformed class id", &request.ReserveRequest{ClassID: "not-a-uuid", Date: date}},
		{"malformed date", &request.ReserveRequest{ClassID: class.ID.String(), Date: "29-08-2026"}},
		{"missing fields", &request.ReserveRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(context.Background(), uuid.New().String(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestCancelConfirmedPromotesWaitlistHead(t *testing.T) {
	svc, store, class, date := newBookingEnv(2, true)

	u1, u2, u3, u4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	b1 := reserve(t, svc, u1, class, date)
	reserve(t, svc, u2, class, date)
	b3 := reserve(t, svc, u3, class, date)
	b4 := reserve(t, svc, u4, class, date)

	cancelled, err := svc.Cancel(context.Background(), b1.ID, u1.String(), false)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	day, _ := utils.ParseDate(date)
	byID := make(map[string]*entity.Booking)
	for _, b := range store.snapshot(class.ID, day) {
		byID[b.ID.String()] = b
	}

	// u3 was waitlist head; it takes the freed spot and u4 moves up.
	assert.Equal(t, entity.BookingStatusConfirmed, byID[b3.ID].Status)
	assert.Nil(t, byID[b3.ID].WaitlistPosition)
	assert.Equal(t, entity.BookingStatusWaitlisted, byID[b4.ID].Status)
	require.NotNil(t, byID[b4.ID].WaitlistPosition)
	assert.Equal(t, 1, *byID[b4.ID].WaitlistPosition)
	assert.Equal(t, 2, confirmedCount(store, class.ID, date))

	// Cancellation releases the duplicate guard: u1 can book again, and
	// joins the back of the queue since the class is full once more.
	again := reserve(t, svc, u1, class, date)
	assert.Equal(t, entity.BookingStatusWaitlisted, again.Status)
	require.NotNil(t, again.WaitlistPosition)
	assert.Equal(t, 2, *again.WaitlistPosition)
}

func TestCancelWaitlistedRenumbersQueue(t *testing.T) {
	svc, store, class, date := newBookingEnv(1, true)

	owner := uuid.New()
	reserve(t, svc, owner, class, date)

	w1User, w2User, w3User := uuid.New(), uuid.New(), uuid.New()
	w1 := reserve(t, svc, w1User, class, date)
	w2 := reserve(t, svc, w2User, class, date)
	w3 := reserve(t, svc, w3User, class, date)
	require.Equal(t, []int{1, 2, 3}, waitlistPositions(t, store, class.ID, date))

	_, err := svc.Cancel(context.Background(), w2.ID, w2User.String(), false)
	require.NoError(t, err)

	// No promotion: the confirmed spot was never freed.
	assert.Equal(t, 1, confirmedCount(store, class.ID, date))
	assert.Equal(t, []int{1, 2}, waitlistPositions(t, store, class.ID, date))

	day, _ := utils.ParseDate(date)
	for _, b := range store.snapshot(class.ID, day) {
		switch b.ID.String() {
		case w1.ID:
			assert.Equal(t, 1, *b.WaitlistPosition)
		case w3.ID:
			assert.Equal(t, 2, *b.WaitlistPosition)
		}
	}
}

func TestCancelGuards(t *testing.T) {
	svc, _, class, date := newBookingEnv(5, true)
	ctx := context.Background()

	owner := uuid.New()
	booking := reserve(t, svc, owner, class, date)

	t.Run("unknown booking", func(t *testing.T) {
		_, err := svc.Cancel(ctx, uuid.New().String(), owner.String(), false)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("other member forbidden", func(t *testing.T) {
		_, err := svc.Cancel(ctx, booking.ID, uuid.New().String(), false)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin may cancel for anyone", func(t *testing.T) {
		resp, err := svc.Cancel(ctx, booking.ID, uuid.New().String(), true)
		require.NoError(t, err)
		assert.Equal(t, entity.BookingStatusCancelled, resp.Status)
	})

	t.Run("already cancelled", func(t *testing.T) {
		_, err := svc.Cancel(ctx, booking.ID, owner.String(), false)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})
}

func TestCancelAttendedBooking(t *testing.T) {
	svc, _, class, date := newBookingEnv(5, true)
	ctx := context.Background()

	owner := uuid.New()
	booking := reserve(t, svc, owner, class, date)

	_, err := svc.CheckIn(ctx, booking.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID, owner.String(), false)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelKeepsBookingRecord(t *testing.T) {
	svc, store, class, date := newBookingEnv(5, true)

	owner := uuid.New()
	booking := reserve(t, svc, owner, class, date)

	_, err := svc.Cancel(context.Background(), booking.ID, owner.String(), false)
	require.NoError(t, err)

	day, _ := utils.ParseDate(date)
	rows := store.snapshot(class.ID, day)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.BookingStatusCancelled, rows[0].Status)
	assert.Nil(t, rows[0].WaitlistPosition)
	assert.NotNil(t, rows[0].CancelledAt)
}

func TestCheckIn(t *testing.T) {
	svc, _, class, date := newBookingEnv(1, true)
	ctx := context.Background()

	confirmed := reserve(t, svc, uuid.New(), class, date)
	waitlisted := reserve(t, svc, uuid.New(), class, date)

	resp, err := svc.CheckIn(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusAttended, resp.Status)

	_, err = svc.CheckIn(ctx, waitlisted.ID)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	_, err = svc.CheckIn(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestHasActiveBooking(t *testing.T) {
	svc, _, class, date := newBookingEnv(1, true)
	ctx := context.Background()

	confirmedUser := uuid.New()
	waitlistedUser := uuid.New()

	active, err := svc.HasActiveBooking(ctx, confirmedUser.String(), class.ID.String(), date)
	require.NoError(t, err)
	assert.False(t, active)

	booking := reserve(t, svc, confirmedUser, class, date)
	reserve(t, svc, waitlistedUser, class, date)

	active, err = svc.HasActiveBooking(ctx, confirmedUser.String(), class.ID.String(), date)
	require.NoError(t, err)
	assert.True(t, active)

	// Waitlisted counts as active too.
	active, err = svc.HasActiveBooking(ctx, waitlistedUser.String(), class.ID.String(), date)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.Cancel(ctx, booking.ID, confirmedUser.String(), false)
	require.NoError(t, err)

	active, err = svc.HasActiveBooking(ctx, confirmedUser.String(), class.ID.String(), date)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestConcurrentReservesRaceForLastSpot(t *testing.T) {
	svc, store, class, date := newBookingEnv(1, true)

	const members = 8
	results := make(chan *response.BookingResponse, members)

	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Reserve(context.Background(), uuid.New().String(), &request.ReserveRequest{
				ClassID: class.ID.String(),
				Date:    date,
			})
			if err == nil {
				results <- resp
			}
		}()
	}
	wg.Wait()
	close(results)

	confirmed, waitlisted := 0, 0
	seen := make(map[int]bool)
	for resp := range results {
		switch resp.Status {
		case entity.BookingStatusConfirmed:
			confirmed++
		case entity.BookingStatusWaitlisted:
			waitlisted++
			require.NotNil(t, resp.WaitlistPosition)
			assert.False(t, seen[*resp.WaitlistPosition], "duplicate position %d", *resp.WaitlistPosition)
			seen[*resp.WaitlistPosition] = true
		}
	}

	assert.Equal(t, 1, confirmed)
	assert.Equal(t, members-1, waitlisted)
	assert.Equal(t, 1, confirmedCount(store, class.ID, date))

	positions := waitlistPositions(t, store, class.ID, date)
	require.Len(t, positions, members-1)
	for i, pos := range positions {
		assert.Equal(t, i+1, pos)
	}
}

func TestConcurrentReservesWaitlistDisabled(t *testing.T) {
	svc, store, class, date := newBookingEnv(2, false)

	const members = 6
	errs := make(chan error, members)

	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), uuid.New().String(), &request.ReserveRequest{
				ClassID: class.ID.String(),
				Date:    date,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, full := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrOccurrenceFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, members-2, full)
	assert.Equal(t, 2, confirmedCount(store, class.ID, date))
}

func TestGetOccurrenceRoster(t *testing.T) {
	svc, _, class, date := newBookingEnv(2, true)
	ctx := context.Background()

	attendee := reserve(t, svc, uuid.New(), class, date)
	reserve(t, svc, uuid.New(), class, date)
	reserve(t, svc, uuid.New(), class, date)

	_, err := svc.CheckIn(ctx, attendee.ID)
	require.NoError(t, err)

	roster, err := svc.GetOccurrenceRoster(ctx, class.ID.String(), date)
	require.NoError(t, err)

	assert.Equal(t, class.Name, roster.ClassName)
	assert.Equal(t, 2, roster.MaxCapacity)
	assert.Len(t, roster.Confirmed, 1)
	assert.Len(t, roster.Waitlist, 1)
	assert.Len(t, roster.Attended, 1)
	assert.Equal(t, 1, roster.ConfirmedCount)
	assert.Equal(t, 1, roster.SpotsLeft)
}

func TestGetUserBookings(t *testing.T) {
	svc, store, _, _ := newBookingEnv(5, true)
	ctx := context.Background()

	date := utils.Today().AddDate(0, 0, 7)
	userID := uuid.New()

	var classes []*entity.Class
	for i := 0; i < 3; i++ {
		now := time.Now()
		class := &entity.Class{
			Base:            entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Name:            fmt.Sprintf("Class %d", i+1),
			Weekday:         date.Weekday(),
			MaxCapacity:     5,
			WaitlistEnabled: true,
			IsActive:        true,
		}
		store.addClass(class)
		classes = append(classes, class)
		reserve(t, svc, userID, class, date.Format("2006-01-02"))
	}

	cancelled := reserve(t, svc, uuid.New(), classes[0], date.Format("2006-01-02"))
	_, err := svc.Cancel(ctx, cancelled.ID, cancelled.UserID, false)
	require.NoError(t, err)

	resp, err := svc.GetUserBookings(ctx, userID.String(), &request.PaginatedRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Len(t, resp.Data, 2)
	for _, item := range resp.Data {
		assert.Equal(t, userID.String(), item.UserID)
		assert.NotEmpty(t, item.ClassName)
	}

	resp, err = svc.GetUserBookings(ctx, userID.String(), &request.PaginatedRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)
}
