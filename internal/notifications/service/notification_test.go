package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	notificationserrors "agenda/internal/notifications/errors"
	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/kafka"
	"agenda/pkg/logger"
	"agenda/pkg/model"
)

type mockNotificationRepository struct {
	mu        sync.Mutex
	stored    map[string]model.Notification
	insertErr error

	markReadFunc func(ctx context.Context, id string) (*model.Notification, error)
	countFunc    func(ctx context.Context, filter model.NotificationFilter) (int64, error)
}

func newMockRepo() *mockNotificationRepository {
	return &mockNotificationRepository{stored: map[string]model.Notification{}}
}

func (m *mockNotificationRepository) InsertIfAbsent(_ context.Context, n *model.Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	key := n.EventID + "|" + n.Audience + "|" + n.RecipientID
	if _, ok := m.stored[key]; ok {
		return false, nil
	}
	m.stored[key] = *n
	return true, nil
}

func (m *mockNotificationRepository) FindByFilter(context.Context, model.NotificationFilter, int, int64) ([]*model.Notification, error) {
	return []*model.Notification{{ID: "n1"}}, nil
}

func (m *mockNotificationRepository) Count(ctx context.Context, filter model.NotificationFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 1, nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id string) (*model.Notification, error) {
	return m.markReadFunc(ctx, id)
}

type mockMailer struct {
	mu     sync.Mutex
	emails []model.Email
	err    error
}

func (m *mockMailer) Enqueue(_ context.Context, email model.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.emails = append(m.emails, email)
	return nil
}

func newTestService(repo *mockNotificationRepository, m *mockMailer) NotificationService {
	cfg := &config.Config{
		Log:         logger.Discard(),
		ReadTimeout: 5 * time.Second,
		AdminEmails: []string{"ops@example.com", "owner@example.com"},
	}
	return NewNotificationService(repo, m, cfg)
}

func event(t *testing.T, eventID, eventType string, payload any) kafka.Message {
	t.Helper()
	value, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{
		Key:   "k",
		Value: value,
		Headers: map[string]string{
			kafka.HeaderEventID:   eventID,
			kafka.HeaderEventType: eventType,
		},
	}
}

func isPermanent(err error) bool {
	return kafka.ClassifyError(err) == kafka.ErrorTypePermanent
}

func TestHandleEvent_AdminEvents(t *testing.T) {
	tests := []struct {
		name        string
		eventType   string
		payload     any
		wantTitle   string
		wantMessage string
	}{
		{
			name:        "schedule created",
			eventType:   model.EventScheduleCreated,
			payload:     model.ScheduleCreated{ScheduleID: "s1", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", Category: "entrenamiento"},
			wantTitle:   "New recurring schedule",
			wantMessage: "entrenamiento every Monday from 09:00 to 10:00",
		},
		{
			name:        "slot created",
			eventType:   model.EventSlotCreated,
			payload:     model.SlotCreated{SlotID: "x", Date: "2025-01-06", Time: "14:00", Category: "asesoria"},
			wantTitle:   "New slot",
			wantMessage: "asesoria slot on 2025-01-06 at 14:00",
		},
		{
			name:        "slots generated",
			eventType:   model.EventSlotsGenerated,
			payload:     model.SlotsGenerated{StartDate: "2025-01-06", EndDate: "2025-01-12", Category: "entrenamiento", Created: 10},
			wantTitle:   "Slots generated",
			wantMessage: "10 entrenamiento slots created from 2025-01-06 to 2025-01-12 (0 skipped, 0 errors)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			m := &mockMailer{}
			svc := newTestService(repo, m)

			if err := svc.HandleEvent(context.Background(), event(t, "evt-1", tt.eventType, tt.payload)); err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}

			n, ok := repo.stored["evt-1|admins|admins"]
			if !ok || len(repo.stored) != 1 {
				t.Fatalf("stored = %+v", repo.stored)
			}
			if n.Title != tt.wantTitle || n.Message != tt.wantMessage || n.Type != tt.eventType || n.Read {
				t.Errorf("notification = %+v", n)
			}
			if len(m.emails) != 2 || m.emails[0].To[0] != "ops@example.com" || m.emails[1].To[0] != "owner@example.com" {
				t.Errorf("emails = %+v", m.emails)
			}
		})
	}
}

func TestHandleEvent_EnrollmentNotifiesUserAndAdmins(t *testing.T) {
	repo := newMockRepo()
	m := &mockMailer{}
	svc := newTestService(repo, m)

	payload := model.EnrollmentCreated{
		EnrollmentID: "e1", UserID: "u1", UserEmail: "ana@example.com", UserName: "Ana",
		Category: "entrenamiento", Date: "2025-01-06", Time: "14:00",
	}
	if err := svc.HandleEvent(context.Background(), event(t, "evt-2", model.EventEnrollmentCreated, payload)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	user, ok := repo.stored["evt-2|user|u1"]
	if !ok || user.Message != "You are enrolled in entrenamiento on 2025-01-06 at 14:00" {
		t.Errorf("user notification = %+v", user)
	}
	admin, ok := repo.stored["evt-2|admins|admins"]
	if !ok || admin.Message != "Ana enrolled in entrenamiento on 2025-01-06 at 14:00" {
		t.Errorf("admin notification = %+v", admin)
	}
	if len(m.emails) != 3 || m.emails[2].To[0] != "ana@example.com" || m.emails[2].EventID != "evt-2" {
		t.Errorf("emails = %+v", m.emails)
	}
}

func TestHandleEvent_ReplayIsHarmless(t *testing.T) {
	repo := newMockRepo()
	m := &mockMailer{}
	svc := newTestService(repo, m)
	msg := event(t, "evt-3", model.EventSlotCreated, model.SlotCreated{SlotID: "x", Date: "2025-01-06", Time: "14:00", Category: "asesoria"})

	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(context.Background(), msg); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if len(repo.stored) != 1 {
		t.Errorf("stored = %d, want 1", len(repo.stored))
	}
	if len(m.emails) != 2 {
		t.Errorf("emails = %d, want 2 from the first delivery only", len(m.emails))
	}
}

func TestHandleEvent_ErrorClassification(t *testing.T) {
	t.Run("missing event id is permanent", func(t *testing.T) {
		svc := newTestService(newMockRepo(), &mockMailer{})
		err := svc.HandleEvent(context.Background(), event(t, "", model.EventSlotCreated, model.SlotCreated{}))
		if err == nil || !isPermanent(err) {
			t.Errorf("error = %v, want permanent", err)
		}
	})

	t.Run("undecodable payload is permanent", func(t *testing.T) {
		svc := newTestService(newMockRepo(), &mockMailer{})
		msg := event(t, "evt-4", model.EventSlotCreated, nil)
		msg.Value = []byte("{not json")
		err := svc.HandleEvent(context.Background(), msg)
		if err == nil || !isPermanent(err) {
			t.Errorf("error = %v, want permanent", err)
		}
	})

	t.Run("enrollment without user is permanent", func(t *testing.T) {
		svc := newTestService(newMockRepo(), &mockMailer{})
		err := svc.HandleEvent(context.Background(), event(t, "evt-5", model.EventEnrollmentCreated, model.EnrollmentCreated{Category: "x"}))
		if err == nil || !isPermanent(err) {
			t.Errorf("error = %v, want permanent", err)
		}
	})

	t.Run("storage failure is transient", func(t *testing.T) {
		repo := newMockRepo()
		repo.insertErr = errors.New("server selection error")
		svc := newTestService(repo, &mockMailer{})
		err := svc.HandleEvent(context.Background(), event(t, "evt-6", model.EventSlotCreated, model.SlotCreated{}))
		if kafka.ClassifyError(err) != kafka.ErrorTypeTransient {
			t.Errorf("error = %v, want transient", err)
		}
	})

	t.Run("unknown type is skipped", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, &mockMailer{})
		if err := svc.HandleEvent(context.Background(), event(t, "evt-7", "payment.captured", map[string]string{})); err != nil {
			t.Errorf("error = %v, want nil", err)
		}
		if len(repo.stored) != 0 {
			t.Errorf("stored = %+v", repo.stored)
		}
	})

	t.Run("mail failure does not fail the event", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, &mockMailer{err: errors.New("channel closed")})
		if err := svc.HandleEvent(context.Background(), event(t, "evt-8", model.EventSlotCreated, model.SlotCreated{})); err != nil {
			t.Errorf("error = %v", err)
		}
		if len(repo.stored) != 1 {
			t.Errorf("stored = %d, want 1", len(repo.stored))
		}
	})
}

func TestList(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockMailer{})

	items, total, err := svc.List(context.Background(), model.NotificationFilter{Audience: model.AudienceAdmins, UnreadOnly: true}, 0, -5)
	if err != nil || total != 1 || len(items) != 1 {
		t.Errorf("List() = %v, %d, %v", items, total, err)
	}

	if _, _, err := svc.List(context.Background(), model.NotificationFilter{Audience: "everyone"}, 10, 0); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("bad audience = %v, want INVALID_INPUT", err)
	}

	repo.countFunc = func(context.Context, model.NotificationFilter) (int64, error) {
		return 0, errors.New("mongo down")
	}
	if _, _, err := svc.List(context.Background(), model.NotificationFilter{}, 10, 0); !apperrors.HasCode(err, apperrors.CodePersistence) {
		t.Errorf("count failure = %v, want PERSISTENCE_ERROR", err)
	}
}

func TestMarkRead(t *testing.T) {
	repo := newMockRepo()
	repo.markReadFunc = func(_ context.Context, id string) (*model.Notification, error) {
		switch id {
		case "ok":
			return &model.Notification{ID: id, Read: true}, nil
		case "bad":
			return nil, fmt.Errorf("%w: %s", notificationserrors.ErrInvalidID, id)
		case "gone":
			return nil, fmt.Errorf("%w: %s", notificationserrors.ErrNotFound, id)
		}
		return nil, errors.New("write conflict")
	}
	svc := newTestService(repo, &mockMailer{})

	tests := []struct {
		id       string
		wantCode string
	}{
		{"", apperrors.CodeInvalidInput},
		{"bad", apperrors.CodeInvalidInput},
		{"gone", apperrors.CodeNotFound},
		{"boom", apperrors.CodePersistence},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if _, err := svc.MarkRead(context.Background(), tt.id); !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want %s", err, tt.wantCode)
			}
		})
	}

	n, err := svc.MarkRead(context.Background(), "ok")
	if err != nil || !n.Read {
		t.Errorf("MarkRead(ok) = %+v, %v", n, err)
	}
}
