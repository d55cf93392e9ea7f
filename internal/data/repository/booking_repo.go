package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-booking/internal/data/entity"
	"gym-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OccurrenceTx is the view of the booking ledger inside an admission
// transaction. Every method runs on the same pgx.Tx, after the class row has
// been locked, so reads and writes for one occurrence cannot interleave with
// another reserve/cancel on the same class.
type OccurrenceTx interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindActive(ctx context.Context, userID, classID uuid.UUID, date time.Time) (*entity.Booking, error)
	CountConfirmed(ctx context.Context, classID uuid.UUID, date time.Time) (int, error)
	FindWaitlisted(ctx context.Context, classID uuid.UUID, date time.Time) ([]*entity.Booking, error)
	Insert(ctx context.Context, booking *entity.Booking) error
	SetStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus, position *int) error
	RewritePositions(ctx context.Context, ids []uuid.UUID) error
}

type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindActiveByOccurrence(ctx context.Context, userID, classID uuid.UUID, date time.Time) (*entity.Booking, error)
	FindByOccurrence(ctx context.Context, classID uuid.UUID, date time.Time) ([]*entity.Booking, error)
	CountConfirmedByOccurrence(ctx context.Context, classID uuid.UUID, date time.Time) (int, error)

	// WithOccurrenceLock runs fn inside a transaction that holds a row-level
	// lock on the class. Concurrent calls for the same class serialize here;
	// different classes proceed in parallel. fn's error aborts the whole
	// transaction, so a failed admission leaves no partial writes.
	WithOccurrenceLock(ctx context.Context, classID uuid.UUID, fn func(tx OccurrenceTx) error) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, user_id, class_id, class_date, status, waitlist_position, cancelled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.ClassID,
		&b.ClassDate,
		&b.Status,
		&b.WaitlistPosition,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY class_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}

	return collectBookings(rows)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindActiveByOccurrence(ctx context.Context, userID, classID uuid.UUID, date time.Time) (*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND class_id = $2 AND class_date = $3
		  AND status IN ('confirmed', 'waitlisted')
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, userID, classID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active booking",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("class_id", classID.String()),
		)
		return nil, fmt.Errorf("find active booking for user %s: %w", userID.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByOccurrence(ctx context.Context, classID uuid.UUID, date time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE class_id = $1 AND class_date = $2
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, classID, date)
	if err != nil {
		r.log.Error("Failed to find bookings by occurrence",
			zap.Error(err),
			zap.String("class_id", classID.String()),
		)
		return nil, fmt.Errorf("find bookings for class %s: %w", classID.String(), err)
	}

	return collectBookings(rows)
}

func (r *bookingRepository) CountConfirmedByOccurrence(ctx context.Context, classID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE class_id = $1 AND class_date = $2 AND status = 'confirmed'
	`

	var count int
	if err := r.db.QueryRow(ctx, query, classID, date).Scan(&count); err != nil {
		r.log.Error("Failed to count confirmed bookings",
			zap.Error(err),
			zap.String("class_id", classID.String()),
		)
		return 0, fmt.Errorf("count confirmed for class %s: %w", classID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) WithOccurrenceLock(ctx context.Context, classID uuid.UUID, fn func(tx OccurrenceTx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin admission transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The class row is the lock anchor: every reserve/cancel for this class
	// queues up on it until the holder commits.
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM classes WHERE id = $1 FOR UPDATE`, classID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock class row %s: %w", classID.String(), err)
	}

	if err := fn(&occurrenceTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit admission transaction",
			zap.Error(err),
			zap.String("class_id", classID.String()),
		)
		return fmt.Errorf("commit admission transaction: %w", err)
	}

	return nil
}

type occurrenceTx struct {
	tx pgx.Tx
}

func (t *occurrenceTx) Get(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(t.tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id.String(), err)
	}
	return booking, nil
}

func (t *occurrenceTx) FindActive(ctx context.Context, userID, classID uuid.UUID, date time.Time) (*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND class_id = $2 AND class_date = $3
		  AND status IN ('confirmed', 'waitlisted')
	`

	booking, err := scanBooking(t.tx.QueryRow(ctx, query, userID, classID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active booking: %w", err)
	}
	return booking, nil
}

func (t *occurrenceTx) CountConfirmed(ctx context.Context, classID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE class_id = $1 AND class_date = $2 AND status = 'confirmed'
	`

	var count int
	if err := t.tx.QueryRow(ctx, query, classID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return count, nil
}

func (t *occurrenceTx) FindWaitlisted(ctx context.Context, classID uuid.UUID, date time.Time) ([]*entity.Booking, error) {
	// created_at order, not waitlist_position, so renumbering can always be
	// recomputed from scratch even after a partial earlier failure.
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE class_id = $1 AND class_date = $2 AND status = 'waitlisted'
		ORDER BY created_at, id
	`

	rows, err := t.tx.Query(ctx, query, classID, date)
	if err != nil {
		return nil, fmt.Errorf("find waitlisted: %w", err)
	}

	return collectBookings(rows)
}

func (t *occurrenceTx) Insert(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, class_id, class_date, status, waitlist_position, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := t.tx.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.ClassID,
		booking.ClassDate,
		booking.Status,
		booking.WaitlistPosition,
		booking.CancelledAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking %s: %w", booking.ID.String(), err)
	}
	return nil
}

func (t *occurrenceTx) SetStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus, position *int) error {
	query := `
		UPDATE bookings
		SET status = $2,
		    waitlist_position = $3,
		    cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := t.tx.Exec(ctx, query, id, status, position)
	if err != nil {
		return fmt.Errorf("set booking %s status to %s: %w", id.String(), string(status), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}
	return nil
}

func (t *occurrenceTx) RewritePositions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	// One batch in the same transaction: positions land as 1..N or not at all.
	batch := &pgx.Batch{}
	for i, id := range ids {
		batch.Queue(
			`UPDATE bookings SET waitlist_position = $2, updated_at = NOW() WHERE id = $1`,
			id, i+1,
		)
	}

	results := t.tx.SendBatch(ctx, batch)
	defer results.Close()

	for range ids {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("rewrite waitlist positions: %w", err)
		}
	}
	return nil
}
