package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	notificationserrors "agenda/internal/notifications/errors"
	"agenda/internal/notifications/mailer"
	"agenda/internal/notifications/repository"
	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/kafka"
	"agenda/pkg/model"

	"golang.org/x/sync/errgroup"
)

type NotificationService interface {
	// HandleEvent is the notifier's Kafka message handler.
	HandleEvent(ctx context.Context, msg kafka.Message) error
	List(ctx context.Context, filter model.NotificationFilter, limit int, offset int64) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, id string) (*model.Notification, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	mailer mailer.Mailer
	cfg    *config.Config
}

func NewNotificationService(repo repository.NotificationRepository, mailer mailer.Mailer, cfg *config.Config) NotificationService {
	return &notificationService{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
	}
}

// outgoing is one notification plus the addresses it is emailed to.
type outgoing struct {
	notification model.Notification
	emailTo      []string
}

// HandleEvent fans one domain event out to notifications. Bad payloads are
// permanent and go to the dead-letter topic; storage failures are retried.
// Email is sent only for notifications this call inserted, so a replayed
// event does not mail anyone twice.
func (s *notificationService) HandleEvent(ctx context.Context, msg kafka.Message) error {
	eventID := msg.GetEventID()
	if eventID == "" {
		return kafka.NewPermanentError("event has no id", nil)
	}

	out, err := s.fanOut(eventID, msg)
	if err != nil {
		return err
	}
	if out == nil {
		s.cfg.Log.Warn("Ignoring unknown event type", "event_type", msg.GetEventType(), "event_id", eventID)
		return nil
	}

	for _, o := range out {
		n := o.notification
		inserted, err := s.repo.InsertIfAbsent(ctx, &n)
		if err != nil {
			return kafka.NewTransientError("failed to store notification", err)
		}
		if !inserted {
			s.cfg.Log.Debug("Notification already stored", "event_id", eventID, "audience", n.Audience, "recipient_id", n.RecipientID)
			continue
		}
		s.sendEmails(ctx, n, o.emailTo)
	}

	s.cfg.Log.Info("Event fanned out", "event_type", msg.GetEventType(), "event_id", eventID, "notifications", len(out))
	return nil
}

func (s *notificationService) sendEmails(ctx context.Context, n model.Notification, to []string) {
	for _, addr := range to {
		email := model.Email{
			To:      []string{addr},
			Subject: n.Title,
			Body:    n.Message,
			EventID: n.EventID,
		}
		if err := s.mailer.Enqueue(ctx, email); err != nil {
			s.cfg.Log.Error("Failed to enqueue email", "event_id", n.EventID, "recipient", addr, "error", err)
		}
	}
}

// fanOut returns nil, nil for event types the notifier does not handle.
func (s *notificationService) fanOut(eventID string, msg kafka.Message) ([]outgoing, error) {
	eventType := msg.GetEventType()
	admin := func(title, message string) outgoing {
		return outgoing{
			notification: model.Notification{
				EventID:     eventID,
				Type:        eventType,
				Audience:    model.AudienceAdmins,
				RecipientID: model.AudienceAdmins,
				Title:       title,
				Message:     message,
			},
			emailTo: s.cfg.AdminEmails,
		}
	}

	switch eventType {
	case model.EventScheduleCreated:
		var e model.ScheduleCreated
		if err := decode(msg, &e); err != nil {
			return nil, err
		}
		return []outgoing{admin("New recurring schedule", fmt.Sprintf("%s every %s from %s to %s",
			label(e.Title, e.Category), time.Weekday(e.DayOfWeek), e.StartTime, e.EndTime))}, nil

	case model.EventSlotCreated:
		var e model.SlotCreated
		if err := decode(msg, &e); err != nil {
			return nil, err
		}
		return []outgoing{admin("New slot", fmt.Sprintf("%s slot on %s at %s", e.Category, e.Date, e.Time))}, nil

	case model.EventSlotsGenerated:
		var e model.SlotsGenerated
		if err := decode(msg, &e); err != nil {
			return nil, err
		}
		return []outgoing{admin("Slots generated", fmt.Sprintf("%d %s slots created from %s to %s (%d skipped, %d errors)",
			e.Created, e.Category, e.StartDate, e.EndDate, e.Skipped, e.Errors))}, nil

	case model.EventEnrollmentCreated:
		var e model.EnrollmentCreated
		if err := decode(msg, &e); err != nil {
			return nil, err
		}
		if e.UserID == "" {
			return nil, kafka.NewPermanentError("enrollment event has no user id", nil)
		}
		when := e.Category
		if e.Date != "" {
			when = fmt.Sprintf("%s on %s at %s", e.Category, e.Date, e.Time)
		}
		user := outgoing{
			notification: model.Notification{
				EventID:     eventID,
				Type:        eventType,
				Audience:    model.AudienceUser,
				RecipientID: e.UserID,
				Title:       "Enrollment confirmed",
				Message:     "You are enrolled in " + when,
			},
		}
		if e.UserEmail != "" {
			user.emailTo = []string{e.UserEmail}
		}
		return []outgoing{
			admin("New enrollment", fmt.Sprintf("%s enrolled in %s", label(e.UserName, e.UserID), when)),
			user,
		}, nil
	}
	return nil, nil
}

func decode(msg kafka.Message, v any) error {
	if err := msg.DecodeValue(v); err != nil {
		return kafka.NewPermanentError("undecodable "+msg.GetEventType()+" payload", err)
	}
	return nil
}

func label(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

func (s *notificationService) List(ctx context.Context, filter model.NotificationFilter, limit int, offset int64) ([]*model.Notification, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	if filter.Audience != "" && filter.Audience != model.AudienceAdmins && filter.Audience != model.AudienceUser {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("audience must be %q or %q", model.AudienceAdmins, model.AudienceUser))
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var notifications []*model.Notification
	g, gctx := errgroup.WithContext(sharedCtx)

	g.Go(func() error {
		var err error
		if count, err = s.repo.Count(gctx, filter); err != nil {
			s.cfg.Log.Error("Failed to count notifications", "error", err)
			return apperrors.Persistence("Failed to count notifications", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if notifications, err = s.repo.FindByFilter(gctx, filter, limit, offset); err != nil {
			s.cfg.Log.Error("Failed to list notifications", "limit", limit, "offset", offset, "error", err)
			return apperrors.Persistence("Failed to retrieve notifications", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return notifications, count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) (*model.Notification, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Notification ID cannot be empty")
	}

	n, err := s.repo.MarkRead(ctx, id)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, notificationserrors.ErrNotFound):
		return nil, apperrors.NotFoundWithID("Notification", id)
	case errors.Is(err, notificationserrors.ErrInvalidID):
		return nil, apperrors.InvalidInput("Invalid notification ID format")
	}
	s.cfg.Log.Error("Failed to mark notification read", "id", id, "error", err)
	return nil, apperrors.Persistence("Failed to update notification", err)
}
