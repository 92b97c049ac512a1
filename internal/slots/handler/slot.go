package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"agenda/internal/slots/service"
	apperrors "agenda/pkg/errors"
	httputil "agenda/pkg/http"
	"agenda/pkg/logger"
	"agenda/pkg/model"
	"agenda/pkg/timeofday"
)

const bulkRoute = "/api/v1/slots/bulk"

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SlotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	slot, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, slot); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

// BulkCreate answers 200 even when some candidates failed; the counters and
// details carry the per-slot outcome.
func (h *SlotHandler) BulkCreate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BulkSlotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BulkCreate", err)
		return
	}

	result, err := h.service.BulkCreate(r.Context(), &req)
	if err != nil {
		h.writeError(w, "BulkCreate", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, result); err != nil {
		h.log.Error("failed to write bulk response", "handler", "BulkCreate", "operation", "WriteJSON", "error", err)
	}
}

func (h *SlotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slot, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter, err := slotFilter(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	slots, totalCount, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, slots, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func slotFilter(r *http.Request) (model.SlotFilter, error) {
	query := r.URL.Query()
	var filter model.SlotFilter
	var err error

	if filter.From, err = queryDate(query.Get("from"), "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(query.Get("to"), "to"); err != nil {
		return filter, err
	}
	if filter.Available, err = httputil.QueryBool(r, "available"); err != nil {
		return filter, err
	}
	if filter.Booked, err = httputil.QueryBool(r, "booked"); err != nil {
		return filter, err
	}
	filter.Category = query.Get("category")
	return filter, nil
}

func queryDate(s, name string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := timeofday.ParseDate(s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter, expected YYYY-MM-DD: " + s)
	}
	return &d, nil
}

func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.SlotUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	slot, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleted, err := h.service.Delete(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, deleted); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slot, err := h.service.Release(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Release", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "Release", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/slots", h.Create)
	router.POST(bulkRoute, h.BulkCreate)
	router.GET("/api/v1/slots", h.List)
	router.GET("/api/v1/slots/id/:id", h.GetByID)
	router.PATCH("/api/v1/slots/id/:id", h.Update)
	router.DELETE("/api/v1/slots/id/:id", h.Delete)
	router.POST("/api/v1/slots/id/:id/release", h.Release)
}

// LongRunningRoutes lists routes that run to completion without the request timeout.
func (h *SlotHandler) LongRunningRoutes() []string {
	return []string{bulkRoute}
}
