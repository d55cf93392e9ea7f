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

type ClassRepository interface {
	Create(ctx context.Context, class *entity.Class) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Class, error)
	FindAllActive(ctx context.Context) ([]*entity.Class, error)
	FindActiveByWeekday(ctx context.Context, weekday time.Weekday) ([]*entity.Class, error)
	Update(ctx context.Context, class *entity.Class) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type classRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewClassRepository(db database.PgxIface, log *zap.Logger) ClassRepository {
	return &classRepository{
		db:  db,
		log: log.With(zap.String("repository", "class")),
	}
}

const classColumns = `id, name, description, coach_name, weekday, start_time, duration_min, max_capacity, waitlist_enabled, is_active, created_at, updated_at, deleted_at`

func scanClass(row pgx.Row) (*entity.Class, error) {
	var c entity.Class
	var durationMin int
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.CoachName,
		&c.Weekday,
		&c.StartTime,
		&durationMin,
		&c.MaxCapacity,
		&c.WaitlistEnabled,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Duration = time.Duration(durationMin) * time.Minute
	return &c, nil
}

func (r *classRepository) Create(ctx context.Context, class *entity.Class) error {
	query := `
		INSERT INTO classes (id, name, description, coach_name, weekday, start_time, duration_min, max_capacity, waitlist_enabled, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		class.ID,
		class.Name,
		class.Description,
		class.CoachName,
		class.Weekday,
		class.StartTime,
		int(class.Duration.Minutes()),
		class.MaxCapacity,
		class.WaitlistEnabled,
		class.IsActive,
		class.CreatedAt,
		class.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create class",
			zap.Error(err),
			zap.String("name", class.Name),
		)
		return fmt.Errorf("create class %s: %w", class.Name, err)
	}

	return nil
}

func (r *classRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1 AND deleted_at IS NULL`

	class, err := scanClass(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find class by ID",
			zap.Error(err),
			zap.String("class_id", id.String()),
		)
		return nil, fmt.Errorf("find class by ID %s: %w", id.String(), err)
	}

	return class, nil
}

func (r *classRepository) FindAllActive(ctx context.Context) ([]*entity.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY weekday, start_time
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active classes", zap.Error(err))
		return nil, fmt.Errorf("find active classes: %w", err)
	}

	return r.collect(rows)
}

func (r *classRepository) FindActiveByWeekday(ctx context.Context, weekday time.Weekday) ([]*entity.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE weekday = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, weekday)
	if err != nil {
		r.log.Error("Failed to find classes by weekday",
			zap.Error(err),
			zap.Int("weekday", int(weekday)),
		)
		return nil, fmt.Errorf("find classes for weekday %d: %w", int(weekday), err)
	}

	return r.collect(rows)
}

func (r *classRepository) collect(rows pgx.Rows) ([]*entity.Class, error) {
	defer rows.Close()

	var classes []*entity.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			r.log.Error("Failed to scan class row", zap.Error(err))
			return nil, fmt.Errorf("scan class row: %w", err)
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

func (r *classRepository) Update(ctx context.Context, class *entity.Class) error {
	query := `
		UPDATE classes
		SET name = $2, description = $3, coach_name = $4, weekday = $5, start_time = $6,
		    duration_min = $7, max_capacity = $8, waitlist_enabled = $9, is_active = $10,
		    updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		class.ID,
		class.Name,
		class.Description,
		class.CoachName,
		class.Weekday,
		class.StartTime,
		int(class.Duration.Minutes()),
		class.MaxCapacity,
		class.WaitlistEnabled,
		class.IsActive,
		class.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update class",
			zap.Error(err),
			zap.String("class_id", class.ID.String()),
		)
		return fmt.Errorf("update class %s: %w", class.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("class %s not found", class.ID.String())
	}

	return nil
}

func (r *classRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE classes SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to deactivate class",
			zap.Error(err),
			zap.String("class_id", id.String()),
		)
		return fmt.Errorf("deactivate class %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("class %s not found", id.String())
	}

	r.log.Info("Class deactivated", zap.String("class_id", id.String()))
	return nil
}
