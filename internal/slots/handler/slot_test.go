package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "agenda/pkg/errors"
	"agenda/pkg/logger"
	"agenda/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockSlotService struct {
	bulkCreateFunc func(ctx context.Context, req *model.BulkSlotRequest) (*model.BulkSlotResult, error)
	listFunc       func(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.TimeSlot, int64, error)
	deleteFunc     func(ctx context.Context, id string) (*model.TimeSlot, error)
	releaseFunc    func(ctx context.Context, id string) (*model.TimeSlot, error)
}

func (m *mockSlotService) Create(ctx context.Context, req *model.SlotRequest) (*model.TimeSlot, error) {
	return nil, apperrors.Conflict("A slot already exists")
}

func (m *mockSlotService) BulkCreate(ctx context.Context, req *model.BulkSlotRequest) (*model.BulkSlotResult, error) {
	return m.bulkCreateFunc(ctx, req)
}

func (m *mockSlotService) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	return nil, apperrors.NotFoundWithID("Slot", id)
}

func (m *mockSlotService) List(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.TimeSlot, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, limit, offset)
	}
	return []*model.TimeSlot{}, 0, nil
}

func (m *mockSlotService) Update(ctx context.Context, id string, updates *model.SlotUpdate) (*model.TimeSlot, error) {
	return nil, apperrors.Conflict("Slot is booked; release it before editing")
}

func (m *mockSlotService) Delete(ctx context.Context, id string) (*model.TimeSlot, error) {
	return m.deleteFunc(ctx, id)
}

func (m *mockSlotService) Release(ctx context.Context, id string) (*model.TimeSlot, error) {
	return m.releaseFunc(ctx, id)
}

func newRouter(svc *mockSlotService) *httprouter.Router {
	router := httprouter.New()
	NewSlotHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestBulkCreate_ReturnsCountersWithOK(t *testing.T) {
	svc := &mockSlotService{
		bulkCreateFunc: func(_ context.Context, req *model.BulkSlotRequest) (*model.BulkSlotResult, error) {
			if !req.SkipWeekends || len(req.TimesOfDay) != 2 || req.Category != "entrenamiento" {
				t.Errorf("decoded request = %+v", req)
			}
			return &model.BulkSlotResult{
				Created: 1,
				Errors:  1,
				Details: []model.BulkSlotDetail{
					{Date: "2025-01-06", Time: "14:00", Status: model.BulkStatusCreated, ID: "x"},
					{Date: "2025-01-06", Time: "15:00", Status: model.BulkStatusError, Reason: "failed to save slot"},
				},
			}, nil
		},
	}

	body := `{"startDate":"2025-01-06","endDate":"2025-01-06","timesOfDay":["14:00","15:00"],"category":"entrenamiento","skipWeekends":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/slots/bulk", strings.NewReader(body))
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var result model.BulkSlotResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Created != 1 || result.Errors != 1 || len(result.Details) != 2 || result.Details[1].Reason != "failed to save slot" {
		t.Errorf("result = %+v", result)
	}
}

func TestBulkCreate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"inverted range", apperrors.InvalidRange("endDate is before startDate"), http.StatusBadRequest},
		{"bad time", apperrors.InvalidTimeFormat("25:00"), http.StatusBadRequest},
		{"validation", apperrors.Validation("Slot validation failed", nil), http.StatusUnprocessableEntity},
		{"store down", apperrors.Persistence("Failed to load existing slots", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSlotService{
				bulkCreateFunc: func(context.Context, *model.BulkSlotRequest) (*model.BulkSlotResult, error) {
					return nil, tt.err
				},
			}
			body := `{"startDate":"2025-01-06","endDate":"2025-01-01","timesOfDay":["14:00"],"category":"x1"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/slots/bulk", strings.NewReader(body))
			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestLongRunningRoutes(t *testing.T) {
	routes := NewSlotHandler(&mockSlotService{}, logger.Discard()).LongRunningRoutes()
	if len(routes) != 1 || routes[0] != "/api/v1/slots/bulk" {
		t.Errorf("routes = %v", routes)
	}
}

func TestList_QueryParameters(t *testing.T) {
	var got model.SlotFilter
	svc := &mockSlotService{
		listFunc: func(_ context.Context, f model.SlotFilter, _ int, _ int64) ([]*model.TimeSlot, int64, error) {
			got = f
			return []*model.TimeSlot{}, 0, nil
		},
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"filters", "?from=2025-01-06&to=2025-01-12&available=true&booked=false&category=asesoria", http.StatusOK},
		{"bad from", "?from=06-01-2025", http.StatusBadRequest},
		{"bad to", "?to=tomorrow", http.StatusBadRequest},
		{"bad booked", "?booked=sometimes", http.StatusBadRequest},
		{"bad offset", "?offset=x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/slots"+tt.query, nil)
			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	wantFrom := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	if got.From == nil || !got.From.Equal(wantFrom) || got.To == nil || !got.To.Equal(wantTo) {
		t.Errorf("range = %v..%v", got.From, got.To)
	}
	if got.Available == nil || !*got.Available || got.Booked == nil || *got.Booked || got.Category != "asesoria" {
		t.Errorf("filter = %+v", got)
	}
}

func TestDeleteAndRelease(t *testing.T) {
	svc := &mockSlotService{
		deleteFunc: func(_ context.Context, id string) (*model.TimeSlot, error) {
			if id == "booked" {
				return nil, apperrors.Conflict("Slot is booked; release it first")
			}
			return &model.TimeSlot{ID: id, Time: "10:00"}, nil
		},
		releaseFunc: func(_ context.Context, id string) (*model.TimeSlot, error) {
			return &model.TimeSlot{ID: id, IsAvailable: true}, nil
		},
	}

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"delete free", http.MethodDelete, "/api/v1/slots/id/free", http.StatusOK},
		{"delete booked", http.MethodDelete, "/api/v1/slots/id/booked", http.StatusConflict},
		{"release", http.MethodPost, "/api/v1/slots/id/booked/release", http.StatusOK},
		{"update booked", http.MethodPatch, "/api/v1/slots/id/booked", http.StatusConflict},
		{"get missing", http.MethodGet, "/api/v1/slots/id/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.method == http.MethodPatch {
				body = strings.NewReader(`{"time":"11:00"}`)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
