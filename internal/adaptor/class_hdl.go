package adaptor

import (
	"encoding/json"
	"net/http"
	"strings"

	"gym-booking/internal/dto/request"
	"gym-booking/internal/usecase"
	"gym-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ClassHandler struct {
	service usecase.ClassService
	log     *zap.Logger
}

func NewClassHandler(service usecase.ClassService, log *zap.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		log:     log.With(zap.String("handler", "class")),
	}
}

// ListClasses handles GET /api/classes (public)
func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.ListClasses(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list classes")
		return
	}

	utils.ResponseSuccess(w, "success", classes)
}

// GetSchedule handles GET /api/schedule?from=YYYY-MM-DD&days=7 (public)
func (h *ClassHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	from := query.Get("from")
	if from == "" {
		from = utils.Today().Format("2006-01-02")
	}
	days := utils.ParseInt(query.Get("days"), 7)

	schedule, err := h.service.GetSchedule(r.Context(), from, days)
	if err != nil {
		h.handleServiceError(w, err, "get schedule")
		return
	}

	utils.ResponseSuccess(w, "success", schedule)
}

// CreateClass handles POST /api/admin/classes (admin only)
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req request.CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	class, err := h.service.CreateClass(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "create class")
		return
	}

	utils.ResponseCreated(w, "success", class)
}

// UpdateClass handles PUT /api/admin/classes/{id} (admin only)
func (h *ClassHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	if classID == "" {
		utils.ResponseBadRequest(w, "Class ID is required", nil)
		return
	}

	var req request.UpdateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	class, err := h.service.UpdateClass(r.Context(), classID, &req)
	if err != nil {
		h.handleServiceError(w, err, "update class")
		return
	}

	utils.ResponseSuccess(w, "success", class)
}

// DeactivateClass handles DELETE /api/admin/classes/{id} (admin only)
func (h *ClassHandler) DeactivateClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	if classID == "" {
		utils.ResponseBadRequest(w, "Class ID is required", nil)
		return
	}

	if err := h.service.DeactivateClass(r.Context(), classID); err != nil {
		h.handleServiceError(w, err, "deactivate class")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

func (h *ClassHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "not found"):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, errMsg)

	case strings.Contains(errMsg, "validation failed"), strings.Contains(errMsg, "invalid"):
		h.log.Warn(operation+" failed - bad input", zap.Error(err))
		utils.ResponseBadRequest(w, errMsg, nil)

	default:
		h.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
