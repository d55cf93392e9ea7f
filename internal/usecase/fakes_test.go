package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"gym-booking/internal/data/entity"
	"gym-booking/internal/data/repository"

	"github.com/google/uuid"
)

// fakeStore is an in-memory booking ledger + class catalog. Its mutex plays
// the role of the class row lock: WithOccurrenceLock holds it for the whole
// callback, so concurrent admissions serialize exactly like they do against
// Postgres.
type fakeStore struct {
	mu       sync.Mutex
	classes  map[uuid.UUID]*entity.Class
	bookings map[uuid.UUID]*entity.Booking
	seq      map[uuid.UUID]int
	nextSeq  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		classes:  make(map[uuid.UUID]*entity.Class),
		bookings: make(map[uuid.UUID]*entity.Booking),
		seq:      make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) addClass(class *entity.Class) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classes[class.ID] = class
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	if b == nil {
		return nil
	}
	clone := *b
	if b.WaitlistPosition != nil {
		pos := *b.WaitlistPosition
		clone.WaitlistPosition = &pos
	}
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		clone.CancelledAt = &at
	}
	return &clone
}

// snapshot returns all bookings for an occurrence in insertion order.
func (f *fakeStore) snapshot(classID uuid.UUID, date time.Time) []*entity.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.occurrenceBookings(classID, date)
}

func (f *fakeStore) occurrenceBookings(classID uuid.UUID, date time.Time) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.ClassID == classID && b.ClassDate.Equal(date) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return f.seq[out[i].ID] < f.seq[out[j].ID]
	})
	return out
}

// ---- repository.ClassRepository ----

type fakeClassRepo struct{ store *fakeStore }

func (r *fakeClassRepo) Create(ctx context.Context, class *entity.Class) error {
	r.store.addClass(class)
	return nil
}

func (r *fakeClassRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Class, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	class, ok := r.store.classes[id]
	if !ok {
		return nil, nil
	}
	clone := *class
	return &clone, nil
}

func (r *fakeClassRepo) FindAllActive(ctx context.Context) ([]*entity.Class, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Class
	for _, class := range r.store.classes {
		if class.IsActive {
			clone := *class
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeClassRepo) FindActiveByWeekday(ctx context.Context, weekday time.Weekday) ([]*entity.Class, error) {
	classes, _ := r.FindAllActive(ctx)
	var out []*entity.Class
	for _, class := range classes {
		if class.Weekday == weekday {
			out = append(out, class)
		}
	}
	return out, nil
}

func (r *fakeClassRepo) Update(ctx context.Context, class *entity.Class) error {
	clone := *class
	r.store.addClass(&clone)
	return nil
}

func (r *fakeClassRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if class, ok := r.store.classes[id]; ok {
		class.IsActive = false
	}
	return nil
}

// ---- repository.BookingRepository ----

type fakeBookingRepo struct{ store *fakeStore }

func (r *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return cloneBooking(r.store.bookings[id]), nil
}

func (r *fakeBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.store.bookings {
		if b.UserID == userID {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.store.seq[out[i].ID] > r.store.seq[out[j].ID]
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, b := range r.store.bookings {
		if b.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) FindActiveByOccurrence(ctx context.Context, userID, classID uuid.UUID, date time.Time) (*entity.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.findActiveLocked(userID, classID, date), nil
}

func (r *fakeBookingRepo) findActiveLocked(userID, classID uuid.UUID, date time.Time) *entity.Booking {
	for _, b := range r.store.bookings {
		if b.UserID == userID && b.ClassID == classID && b.ClassDate.Equal(date) && b.Active() {
			return cloneBooking(b)
		}
	}
	return nil
}

func (r *fakeBookingRepo) FindByOccurrence(ctx context.Context, classID uuid.UUID, date time.Time) ([]*entity.Booking, error) {
	return r.store.snapshot(classID, date), nil
}

func (r *fakeBookingRepo) CountConfirmedByOccurrence(ctx context.Context, classID uuid.UUID, date time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.countConfirmedLocked(classID, date), nil
}

func (r *fakeBookingRepo) countConfirmedLocked(classID uuid.UUID, date time.Time) int {
	count := 0
	for _, b := range r.store.bookings {
		if b.ClassID == classID && b.ClassDate.Equal(date) && b.Status == entity.BookingStatusConfirmed {
			count++
		}
	}
	return count
}

func (r *fakeBookingRepo) WithOccurrenceLock(ctx context.Context, classID uuid.UUID, fn func(tx repository.OccurrenceTx) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.classes[classID]; !ok {
		return repository.ErrNotFound
	}

	return fn(&fakeTx{repo: r})
}

// fakeTx operates while the store mutex is held by WithOccurrenceLock.
type fakeTx struct{ repo *fakeBookingRepo }

func (t *fakeTx) Get(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return cloneBooking(t.repo.store.bookings[id]), nil
}

func (t *fakeTx) FindActive(ctx context.Context, userID, classID uuid.UUID, date time.Time) (*entity.Booking, error) {
	return t.repo.findActiveLocked(userID, classID, date), nil
}

func (t *fakeTx) CountConfirmed(ctx context.Context, classID uuid.UUID, date time.Time) (int, error) {
	return t.repo.countConfirmedLocked(classID, date), nil
}

func (t *fakeTx) FindWaitlisted(ctx context.Context, classID uuid.UUID, date time.Time) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range t.repo.store.occurrenceBookings(classID, date) {
		if b.Status == entity.BookingStatusWaitlisted {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *fakeTx) Insert(ctx context.Context, booking *entity.Booking) error {
	store := t.repo.store
	store.nextSeq++
	store.seq[booking.ID] = store.nextSeq
	store.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (t *fakeTx) SetStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus, position *int) error {
	b, ok := t.repo.store.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	b.WaitlistPosition = position
	if status == entity.BookingStatusCancelled && b.CancelledAt == nil {
		now := time.Now()
		b.CancelledAt = &now
	}
	return nil
}

func (t *fakeTx) RewritePositions(ctx context.Context, ids []uuid.UUID) error {
	for i, id := range ids {
		if b, ok := t.repo.store.bookings[id]; ok {
			pos := i + 1
			b.WaitlistPosition = &pos
		}
	}
	return nil
}

// newTestRepo wires the fakes into the repository aggregate the services take.
func newTestRepo(store *fakeStore) *repository.Repository {
	return &repository.Repository{
		Class:   &fakeClassRepo{store: store},
		Booking: &fakeBookingRepo{store: store},
	}
}
