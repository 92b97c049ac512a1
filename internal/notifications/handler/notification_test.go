package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "agenda/pkg/errors"
	"agenda/pkg/kafka"
	"agenda/pkg/logger"
	"agenda/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockNotificationService struct {
	listFunc func(ctx context.Context, filter model.NotificationFilter, limit int, offset int64) ([]*model.Notification, int64, error)
}

func (m *mockNotificationService) HandleEvent(context.Context, kafka.Message) error {
	return nil
}

func (m *mockNotificationService) List(ctx context.Context, filter model.NotificationFilter, limit int, offset int64) ([]*model.Notification, int64, error) {
	return m.listFunc(ctx, filter, limit, offset)
}

func (m *mockNotificationService) MarkRead(_ context.Context, id string) (*model.Notification, error) {
	if id == "missing" {
		return nil, apperrors.NotFoundWithID("Notification", id)
	}
	return &model.Notification{ID: id, Read: true}, nil
}

func newRouter(svc *mockNotificationService) *httprouter.Router {
	router := httprouter.New()
	NewNotificationHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestList_Filters(t *testing.T) {
	var got model.NotificationFilter
	svc := &mockNotificationService{
		listFunc: func(_ context.Context, f model.NotificationFilter, _ int, _ int64) ([]*model.Notification, int64, error) {
			got = f
			return []*model.Notification{}, 0, nil
		},
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"unread admins", "?unread=true&audience=admins", http.StatusOK},
		{"bad unread", "?unread=perhaps", http.StatusBadRequest},
		{"bad limit", "?limit=ten", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications"+tt.query, nil)
			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	if !got.UnreadOnly || got.Audience != model.AudienceAdmins {
		t.Errorf("filter = %+v", got)
	}
}

func TestMarkRead(t *testing.T) {
	svc := &mockNotificationService{}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/id/abc/read", nil)
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"read":true`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/id/missing/read", nil)
	w = httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
