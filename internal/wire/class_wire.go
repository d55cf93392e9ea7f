package wire

import (
	"gym-booking/internal/adaptor"
	"gym-booking/internal/data/repository"
	"gym-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireClass(
	r chi.Router,
	classHandler *adaptor.ClassHandler,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Public routes
	// GET /api/classes - list active class definitions
	r.Get("/api/classes", classHandler.ListClasses)

	// GET /api/schedule?from=YYYY-MM-DD&days=7 - occurrences with availability
	r.Get("/api/schedule", classHandler.GetSchedule)

	// Admin class management
	r.Route("/api/admin/classes", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/", classHandler.CreateClass)
		r.Put("/{id}", classHandler.UpdateClass)
		r.Delete("/{id}", classHandler.DeactivateClass)

		// GET /api/admin/classes/{id}/roster?date= - confirmed list + waitlist
		r.Get("/{id}/roster", bookingHandler.GetRoster)
	})
}
