package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gym-booking/internal/data/entity"
	"gym-booking/internal/dto/request"
	"gym-booking/internal/usecase"
	"gym-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// Reserve handles POST /api/bookings (protected)
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.Reserve(r.Context(), userID.String(), &req)
	if err != nil {
		h.handleServiceError(w, err, "reserve")
		return
	}

	// 201 either way; callers tell a confirmed spot from a waitlist place by
	// the returned status and waitlist_position.
	if booking.Status == entity.BookingStatusWaitlisted {
		utils.ResponseCreated(w, "class full - added to waitlist", booking)
		return
	}
	utils.ResponseCreated(w, "booking confirmed", booking)
}

// Cancel handles DELETE /api/bookings/{id} (protected; owner or admin)
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	role, _ := utils.GetRoleFromContext(r.Context())
	admin := role == string(entity.RoleAdmin)

	booking, err := h.service.Cancel(r.Context(), bookingID, userID.String(), admin)
	if err != nil {
		h.handleServiceError(w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "booking cancelled", booking)
}

// CheckIn handles POST /api/admin/bookings/{id}/check-in (admin only)
func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	booking, err := h.service.CheckIn(r.Context(), bookingID)
	if err != nil {
		h.handleServiceError(w, err, "check in")
		return
	}

	utils.ResponseSuccess(w, "member checked in", booking)
}

// HasActiveBooking handles GET /api/bookings/active?class_id=..&date=.. (protected)
func (h *BookingHandler) HasActiveBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	classID := query.Get("class_id")
	date := query.Get("date")
	if classID == "" || date == "" {
		utils.ResponseBadRequest(w, "class_id and date are required", nil)
		return
	}

	active, err := h.service.HasActiveBooking(r.Context(), userID.String(), classID, date)
	if err != nil {
		h.handleServiceError(w, err, "check active booking")
		return
	}

	utils.ResponseSuccess(w, "success", map[string]bool{"active": active})
}

// GetUserBookings handles GET /api/user/bookings (protected)
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.GetUserBookings(r.Context(), userID.String(), req)
	if err != nil {
		h.handleServiceError(w, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetRoster handles GET /api/admin/classes/{id}/roster?date=.. (admin only)
func (h *BookingHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	date := r.URL.Query().Get("date")
	if classID == "" || date == "" {
		utils.ResponseBadRequest(w, "class ID and date are required", nil)
		return
	}

	roster, err := h.service.GetOccurrenceRoster(r.Context(), classID, date)
	if err != nil {
		h.handleServiceError(w, err, "get roster")
		return
	}

	utils.ResponseSuccess(w, "success", roster)
}

func (h *BookingHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrOccurrenceNotFound), errors.Is(err, usecase.ErrBookingNotFound):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrAlreadyBooked),
		errors.Is(err, usecase.ErrOccurrenceFull),
		errors.Is(err, usecase.ErrAlreadyCancelled),
		errors.Is(err, usecase.ErrNotCancellable),
		errors.Is(err, usecase.ErrNotConfirmed):
		h.log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrForbidden):
		h.log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrStoreUnavailable):
		h.log.Error(operation+" failed - store unavailable", zap.Error(err))
		utils.ResponseServiceUnavailable(w, "Temporary failure, please retry")

	case strings.Contains(err.Error(), "validation failed"),
		strings.Contains(err.Error(), "invalid"):
		h.log.Warn(operation+" failed - bad input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		h.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
