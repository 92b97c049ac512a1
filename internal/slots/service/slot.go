package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agenda/internal/events"
	"agenda/internal/scheduling"
	slotserrors "agenda/internal/slots/errors"
	"agenda/internal/slots/repository"
	"agenda/internal/slots/validator"
	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/middleware"
	"agenda/pkg/model"
	"agenda/pkg/sanitizer"
	"agenda/pkg/timeofday"

	"golang.org/x/sync/errgroup"
)

const reasonScheduleConflict = "conflicts with recurring schedule"

// ScheduleReader supplies the recurring schedules bulk generation checks
// candidates against.
type ScheduleReader interface {
	FindActive(ctx context.Context, categories []string) ([]model.RecurringSchedule, error)
}

type SlotService interface {
	Create(ctx context.Context, req *model.SlotRequest) (*model.TimeSlot, error)
	BulkCreate(ctx context.Context, req *model.BulkSlotRequest) (*model.BulkSlotResult, error)
	GetByID(ctx context.Context, id string) (*model.TimeSlot, error)
	List(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.TimeSlot, int64, error)
	Update(ctx context.Context, id string, updates *model.SlotUpdate) (*model.TimeSlot, error)
	Delete(ctx context.Context, id string) (*model.TimeSlot, error)
	Release(ctx context.Context, id string) (*model.TimeSlot, error)
}

type slotService struct {
	repo      repository.SlotRepository
	schedules ScheduleReader
	validator *validator.SlotValidator
	conflicts *scheduling.ConflictValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewSlotService(
	repo repository.SlotRepository,
	schedules ScheduleReader,
	validator *validator.SlotValidator,
	conflicts *scheduling.ConflictValidator,
	publisher events.Publisher,
	cfg *config.Config,
) SlotService {
	return &slotService{
		repo:      repo,
		schedules: schedules,
		validator: validator,
		conflicts: conflicts,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *slotService) Create(ctx context.Context, req *model.SlotRequest) (*model.TimeSlot, error) {
	req.Category = sanitizer.SanitizeCategory(req.Category)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Slot validation failed", "category", req.Category, "error", err)
		return nil, validationError(err)
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	hhmm, err := timeofday.Normalize(req.Time)
	if err != nil {
		return nil, apperrors.InvalidTimeFormat(req.Time)
	}

	slot := &model.TimeSlot{
		Date:            date,
		Time:            hhmm,
		DurationMinutes: s.duration(req.DurationMinutes),
		Category:        req.Category,
		IsAvailable:     true,
		Source:          model.SlotSourceManual,
	}
	if req.IsAvailable != nil {
		slot.IsAvailable = *req.IsAvailable
	}

	inserted, err := s.repo.InsertIfAbsent(ctx, slot)
	if err != nil {
		s.cfg.Log.Error("Failed to create slot", "date", req.Date, "time", hhmm, "error", err)
		return nil, apperrors.Persistence("Failed to create slot", err)
	}
	if !inserted {
		return nil, apperrors.Conflict(fmt.Sprintf("A %s slot already exists on %s at %s", slot.Category, timeofday.FormatDate(date), hhmm))
	}

	s.cfg.Log.Info("Slot created successfully",
		"id", slot.ID,
		"date", timeofday.FormatDate(date),
		"time", hhmm,
		"category", slot.Category,
	)
	s.publish(ctx, model.EventSlotCreated, slot.ID, model.SlotCreated{
		SlotID:    slot.ID,
		Date:      timeofday.FormatDate(date),
		Time:      hhmm,
		Category:  slot.Category,
		CreatedBy: middleware.PrincipalID(ctx),
	})
	return slot, nil
}

// BulkCreate expands the range into candidates and inserts each one that is
// not skipped. Every candidate ends up in exactly one of created, skipped or
// errors; details follow candidate order.
func (s *slotService) BulkCreate(ctx context.Context, req *model.BulkSlotRequest) (*model.BulkSlotResult, error) {
	req.Category = sanitizer.SanitizeCategory(req.Category)
	if err := s.validator.ValidateBulk(req); err != nil {
		s.cfg.Log.Warn("Bulk slot validation failed", "category", req.Category, "error", err)
		return nil, validationError(err)
	}

	candidates, err := scheduling.Expand(req.StartDate, req.EndDate, req.TimesOfDay, scheduling.ExpandOptions{
		SkipWeekends:  req.SkipWeekends,
		MaxCandidates: s.cfg.MaxBulkSlots,
	})
	if err != nil {
		s.cfg.Log.Warn("Bulk slot range rejected", "start_date", req.StartDate, "end_date", req.EndDate, "error", err)
		return nil, err
	}

	result := &model.BulkSlotResult{Details: make([]model.BulkSlotDetail, len(candidates))}
	if len(candidates) == 0 {
		return result, nil
	}

	var existing map[string]struct{}
	if req.SkipExisting {
		existing, err = s.repo.FindExistingKeys(ctx, req.Category, candidates[0].Date, candidates[len(candidates)-1].Date)
		if err != nil {
			s.cfg.Log.Error("Failed to load existing slots", "category", req.Category, "error", err)
			return nil, apperrors.Persistence("Failed to load existing slots", err)
		}
	}

	var schedules []model.RecurringSchedule
	if req.CheckConflicts {
		schedules, err = s.schedules.FindActive(ctx, s.conflicts.Domains().Peers(req.Category))
		if err != nil {
			s.cfg.Log.Error("Failed to load recurring schedules", "category", req.Category, "error", err)
			return nil, apperrors.Persistence("Failed to load recurring schedules", err)
		}
	}

	duration := s.duration(req.DurationMinutes)
	var g errgroup.Group
	g.SetLimit(max(1, s.cfg.BulkInsertConcurrency))

	for i, c := range candidates {
		detail := &result.Details[i]
		detail.Date = c.DateString()
		detail.Time = c.TimeString()

		if _, ok := existing[c.Key()]; ok {
			detail.Status = model.BulkStatusSkipped
			detail.Reason = "already exists"
			continue
		}
		if req.CheckConflicts && s.conflicts.SlotConflicts(c, duration, req.Category, schedules) {
			detail.Status = model.BulkStatusSkipped
			detail.Reason = reasonScheduleConflict
			continue
		}

		g.Go(func() error {
			slot := &model.TimeSlot{
				Date:            c.Date,
				Time:            c.TimeString(),
				DurationMinutes: duration,
				Category:        req.Category,
				IsAvailable:     true,
				Source:          model.SlotSourceBulk,
			}
			inserted, err := s.repo.InsertIfAbsent(ctx, slot)
			switch {
			case err != nil:
				s.cfg.Log.Error("Failed to insert bulk slot", "slot", c.Key(), "error", err)
				detail.Status = model.BulkStatusError
				detail.Reason = "failed to save slot"
			case !inserted:
				detail.Status = model.BulkStatusSkipped
				detail.Reason = "already exists"
			default:
				detail.Status = model.BulkStatusCreated
				detail.ID = slot.ID
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range result.Details {
		switch d.Status {
		case model.BulkStatusCreated:
			result.Created++
		case model.BulkStatusSkipped:
			result.Skipped++
		default:
			result.Errors++
		}
	}

	s.cfg.Log.Info("Bulk slot generation completed",
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"category", req.Category,
		"candidates", len(candidates),
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", result.Errors,
	)
	if result.Created > 0 {
		s.publish(ctx, model.EventSlotsGenerated, req.Category, model.SlotsGenerated{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Category:  req.Category,
			Created:   result.Created,
			Skipped:   result.Skipped,
			Errors:    result.Errors,
			CreatedBy: middleware.PrincipalID(ctx),
		})
	}
	return result, nil
}

func (s *slotService) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve slot")
	}
	return slot, nil
}

func (s *slotService) List(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.TimeSlot, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter.Category = sanitizer.SanitizeCategory(filter.Category)
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperrors.InvalidRange("to must not be before from")
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var slots []*model.TimeSlot
	g, gctx := errgroup.WithContext(sharedCtx)

	g.Go(func() error {
		var err error
		if count, err = s.repo.Count(gctx, filter); err != nil {
			s.cfg.Log.Error("Failed to count slots", "error", err)
			return apperrors.Persistence("Failed to count slots", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if slots, err = s.repo.FindByFilter(gctx, filter, limit, offset); err != nil {
			s.cfg.Log.Error("Failed to list slots", "limit", limit, "offset", offset, "error", err)
			return apperrors.Persistence("Failed to retrieve slots", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return slots, count, nil
}

func (s *slotService) Update(ctx context.Context, id string, updates *model.SlotUpdate) (*model.TimeSlot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	if updates.IsEmpty() {
		return nil, apperrors.InvalidInput("Update must change at least one field")
	}
	if updates.Category != nil {
		c := sanitizer.SanitizeCategory(*updates.Category)
		updates.Category = &c
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Slot update validation failed", "id", id, "error", err)
		return nil, validationError(err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to check slot existence")
	}
	if existing.IsBooked {
		return nil, apperrors.Conflict("Slot is booked; release it before editing")
	}

	merged := *existing
	if updates.Date != nil {
		if merged.Date, err = parseDate(*updates.Date); err != nil {
			return nil, err
		}
	}
	if updates.Time != nil {
		if merged.Time, err = timeofday.Normalize(*updates.Time); err != nil {
			return nil, apperrors.InvalidTimeFormat(*updates.Time)
		}
	}
	if updates.DurationMinutes != nil {
		merged.DurationMinutes = *updates.DurationMinutes
	}
	if updates.Category != nil {
		merged.Category = *updates.Category
	}
	if updates.IsAvailable != nil {
		merged.IsAvailable = *updates.IsAvailable
	}

	if err := s.repo.UpdateByID(ctx, id, &merged); err != nil {
		return nil, s.translateRepoError(err, id, "Failed to update slot")
	}
	s.cfg.Log.Info("Slot updated successfully", "id", id)
	return &merged, nil
}

func (s *slotService) Delete(ctx context.Context, id string) (*model.TimeSlot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to delete slot")
	}
	s.cfg.Log.Info("Slot deleted successfully", "id", id)
	return deleted, nil
}

func (s *slotService) Release(ctx context.Context, id string) (*model.TimeSlot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	slot, err := s.repo.Release(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to release slot")
	}
	s.cfg.Log.Info("Slot released", "id", id, "released_by", middleware.PrincipalID(ctx))
	return slot, nil
}

func (s *slotService) duration(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.cfg.DefaultSlotDurationMin
}

func (s *slotService) translateRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, slotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Slot", id)
	case errors.Is(err, slotserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid slot ID format")
	case errors.Is(err, slotserrors.ErrBooked):
		return apperrors.Conflict("Slot is booked; release it first")
	case errors.Is(err, slotserrors.ErrDuplicate):
		return apperrors.Conflict("Another slot already exists at that date, time and category")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Persistence(message, err)
}

func (s *slotService) publish(ctx context.Context, eventType, key string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.cfg.Log.Warn("Failed to publish slot event", "event_type", eventType, "key", key, "error", err)
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := timeofday.ParseDate(s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return d, nil
}

func validationError(err error) error {
	return apperrors.Validation("Slot validation failed", map[string]any{
		"error": err.Error(),
	})
}
