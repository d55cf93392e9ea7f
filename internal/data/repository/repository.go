package repository

import (
	"errors"

	"gym-booking/pkg/database"

	"go.uber.org/zap"
)

// ErrNotFound is returned by transactional helpers when the row they need to
// lock does not exist. Plain lookups keep the (nil, nil) convention.
var ErrNotFound = errors.New("not found")

type Repository struct {
	User    UserRepository
	Session SessionRepository
	Class   ClassRepository
	Booking BookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Session: NewSessionRepository(db, log),
		Class:   NewClassRepository(db, log),
		Booking: NewBookingRepository(db, log),
	}
}
