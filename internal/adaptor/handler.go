package adaptor

import (
	"gym-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	Class   *ClassHandler
	Booking *BookingHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		Class:   NewClassHandler(service.Class, log),
		Booking: NewBookingHandler(service.Booking, log),
	}
}
