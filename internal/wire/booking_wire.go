package wire

import (
	"gym-booking/internal/adaptor"
	"gym-booking/internal/data/repository"
	"gym-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Member routes (require auth)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/bookings - reserve a spot (confirmed or waitlisted)
		r.Post("/api/bookings", bookingHandler.Reserve)

		// DELETE /api/bookings/{id} - cancel own booking
		r.Delete("/api/bookings/{id}", bookingHandler.Cancel)

		// GET /api/bookings/active - pre-check before showing a reserve button
		r.Get("/api/bookings/active", bookingHandler.HasActiveBooking)

		// GET /api/user/bookings - booking history
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})

	// Admin booking management
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		// DELETE /api/admin/bookings/{id} - cancel any booking
		r.Delete("/{id}", bookingHandler.Cancel)

		// POST /api/admin/bookings/{id}/check-in - mark attendance
		r.Post("/{id}/check-in", bookingHandler.CheckIn)
	})
}
