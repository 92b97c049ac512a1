package handler

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"agenda/internal/schedules/service"
	apperrors "agenda/pkg/errors"
	httputil "agenda/pkg/http"
	"agenda/pkg/logger"
	"agenda/pkg/model"
)

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	sc, validation, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeConflictOrError(w, "Create", validation, err)
		return
	}

	if err := httputil.WriteCreated(w, sc); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Validate", err)
		return
	}

	excludeID := strings.TrimSpace(r.URL.Query().Get("excludeId"))
	validation, err := h.service.Validate(r.Context(), &req, excludeID)
	if err != nil {
		h.writeError(w, "Validate", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, validation); err != nil {
		h.log.Error("failed to write validation response", "handler", "Validate", "operation", "WriteJSON", "error", err)
	}
}

func (h *ScheduleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sc, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, sc); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	var filter model.ScheduleFilter
	if filter.DayOfWeek, err = httputil.QueryInt(r, "dayOfWeek"); err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	if filter.Active, err = httputil.QueryBool(r, "active"); err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	filter.Category = r.URL.Query().Get("category")

	schedules, totalCount, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, schedules, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ScheduleUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	sc, validation, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeConflictOrError(w, "Update", validation, err)
		return
	}

	if err := httputil.WriteSuccess(w, sc); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleted, err := h.service.Delete(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, deleted); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteSuccess", "error", err)
	}
}

// writeConflictOrError answers an overlap rejection with the validation
// payload itself so clients can offer the suggestions.
func (h *ScheduleHandler) writeConflictOrError(w http.ResponseWriter, handler string, validation *model.ScheduleValidation, err error) {
	if validation != nil && !validation.IsValid && apperrors.HasCode(err, apperrors.CodeConflict) {
		if writeErr := httputil.WriteJSON(w, http.StatusConflict, validation); writeErr != nil {
			h.log.Error("failed to write conflict response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	h.writeError(w, handler, err)
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/schedules", h.Create)
	router.POST("/api/v1/schedules/validate", h.Validate)
	router.GET("/api/v1/schedules", h.GetAll)
	router.GET("/api/v1/schedules/id/:id", h.GetByID)
	router.PATCH("/api/v1/schedules/id/:id", h.Update)
	router.DELETE("/api/v1/schedules/id/:id", h.Delete)
}
