package usecase

import (
	"gym-booking/internal/data/repository"
	"gym-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	Class   ClassService
	Booking BookingService
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Auth:    NewAuthService(repo, config, log),
		Class:   NewClassService(repo, log),
		Booking: NewBookingService(repo, log),
	}
}
