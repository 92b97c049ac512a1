package service

import (
	"context"
	"errors"
	"strings"

	"agenda/internal/events"
	"agenda/internal/scheduling"
	scheduleerrors "agenda/internal/schedules/errors"
	"agenda/internal/schedules/repository"
	"agenda/internal/schedules/validator"
	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/middleware"
	"agenda/pkg/model"
	"agenda/pkg/sanitizer"
	"agenda/pkg/timeofday"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

type ScheduleService interface {
	Validate(ctx context.Context, req *model.ScheduleRequest, excludeID string) (*model.ScheduleValidation, error)
	Create(ctx context.Context, req *model.ScheduleRequest) (*model.RecurringSchedule, *model.ScheduleValidation, error)
	GetByID(ctx context.Context, id string) (*model.RecurringSchedule, error)
	GetAll(ctx context.Context, filter model.ScheduleFilter, limit int, offset int64) ([]*model.RecurringSchedule, int64, error)
	Update(ctx context.Context, id string, updates *model.ScheduleUpdate) (*model.RecurringSchedule, *model.ScheduleValidation, error)
	Delete(ctx context.Context, id string) (*model.RecurringSchedule, error)
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	validator *validator.ScheduleValidator
	conflicts *scheduling.ConflictValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	validator *validator.ScheduleValidator,
	conflicts *scheduling.ConflictValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		validator: validator,
		conflicts: conflicts,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Validate is advisory: it reads the current schedules outside a transaction.
func (s *scheduleService) Validate(ctx context.Context, req *model.ScheduleRequest, excludeID string) (*model.ScheduleValidation, error) {
	s.sanitize(req)
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	return s.validateAgainstStore(ctx, s.proposal(req), excludeID)
}

func (s *scheduleService) Create(ctx context.Context, req *model.ScheduleRequest) (*model.RecurringSchedule, *model.ScheduleValidation, error) {
	s.sanitize(req)
	if err := s.checkRequest(req); err != nil {
		return nil, nil, err
	}

	sc := s.fromRequest(req)
	var validation *model.ScheduleValidation
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		validation, err = s.validateAgainstStore(sessCtx, s.proposal(req), "")
		if err != nil {
			return err
		}
		if err := s.rejectConflicts(validation, req.Force); err != nil {
			return err
		}
		return s.repo.Create(sessCtx, sc)
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Warn("Schedule rejected due to conflicts",
				"day_of_week", sc.DayOfWeek,
				"start_time", sc.StartTime,
				"category", sc.Category,
				"conflicts", len(validation.Conflicts),
			)
			return nil, validation, err
		}
		if !apperrors.IsAppError(err) {
			s.cfg.Log.Error("Failed to create schedule", "category", sc.Category, "error", err)
			return nil, nil, apperrors.Persistence("Failed to create schedule", err)
		}
		return nil, nil, err
	}

	s.cfg.Log.Info("Schedule created successfully",
		"id", sc.ID,
		"day_of_week", sc.DayOfWeek,
		"start_time", sc.StartTime,
		"end_time", sc.EndTime,
		"category", sc.Category,
		"forced", !validation.IsValid,
	)
	s.publishCreated(ctx, sc)
	return sc, validation, nil
}

func (s *scheduleService) GetByID(ctx context.Context, id string) (*model.RecurringSchedule, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	sc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve schedule")
	}
	return sc, nil
}

func (s *scheduleService) GetAll(ctx context.Context, filter model.ScheduleFilter, limit int, offset int64) ([]*model.RecurringSchedule, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter.Category = sanitizer.SanitizeCategory(filter.Category)
	if filter.DayOfWeek != nil && (*filter.DayOfWeek < 0 || *filter.DayOfWeek > 6) {
		return nil, 0, apperrors.InvalidInput("dayOfWeek must be between 0 and 6")
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var schedules []*model.RecurringSchedule
	g, gctx := errgroup.WithContext(sharedCtx)

	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count schedules", "error", err)
			return apperrors.Persistence("Failed to count schedules", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		schedules, err = s.repo.FindByFilter(gctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get schedules",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			return apperrors.Persistence("Failed to retrieve schedules", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return schedules, count, nil
}

func (s *scheduleService) Update(ctx context.Context, id string, updates *model.ScheduleUpdate) (*model.RecurringSchedule, *model.ScheduleValidation, error) {
	if id == "" {
		return nil, nil, apperrors.InvalidInput("Schedule ID cannot be empty")
	}
	if updates.IsEmpty() {
		return nil, nil, apperrors.InvalidInput("Update must change at least one field")
	}
	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Schedule update validation failed", "id", id, "error", err)
		return nil, nil, apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	var merged *model.RecurringSchedule
	var validation *model.ScheduleValidation
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.translateRepoError(err, id, "Failed to check schedule existence")
		}
		merged = mergeScheduleUpdates(existing, updates)
		if normalized, err := timeofday.Normalize(merged.StartTime); err == nil {
			merged.StartTime = normalized
		}
		if normalized, err := timeofday.Normalize(merged.EndTime); err == nil {
			merged.EndTime = normalized
		}

		grace := s.cfg.DefaultGraceMinutes
		if updates.GraceMinutes != nil {
			grace = *updates.GraceMinutes
		}
		validation, err = s.validateAgainstStore(sessCtx, scheduling.Proposal{
			DayOfWeek:    merged.DayOfWeek,
			StartTime:    merged.StartTime,
			EndTime:      merged.EndTime,
			Category:     merged.Category,
			GraceMinutes: grace,
		}, id)
		if err != nil {
			return err
		}
		// Deactivating never creates a conflict.
		if merged.IsActive {
			if err := s.rejectConflicts(validation, updates.Force); err != nil {
				return err
			}
		}
		if err := s.repo.Update(sessCtx, id, merged); err != nil {
			return s.translateRepoError(err, id, "Failed to update schedule")
		}
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Warn("Schedule update rejected due to conflicts", "id", id, "conflicts", len(validation.Conflicts))
			return nil, validation, err
		}
		if !apperrors.IsAppError(err) {
			s.cfg.Log.Error("Failed to update schedule", "id", id, "error", err)
			return nil, nil, apperrors.Persistence("Failed to update schedule", err)
		}
		return nil, nil, err
	}

	s.cfg.Log.Info("Schedule updated successfully", "id", id)
	return merged, validation, nil
}

func (s *scheduleService) Delete(ctx context.Context, id string) (*model.RecurringSchedule, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to delete schedule")
	}
	s.cfg.Log.Info("Schedule deleted successfully", "id", id)
	return deleted, nil
}

func (s *scheduleService) checkRequest(req *model.ScheduleRequest) error {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Schedule validation failed", "category", req.Category, "error", err)
		return apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	_, err := scheduling.ParseProposal(s.proposal(req))
	return err
}

func (s *scheduleService) validateAgainstStore(ctx context.Context, p scheduling.Proposal, excludeID string) (*model.ScheduleValidation, error) {
	if _, err := scheduling.ParseProposal(p); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindActiveByDay(ctx, p.DayOfWeek, s.conflicts.Domains().Peers(p.Category))
	if err != nil {
		s.cfg.Log.Error("Failed to load schedules for conflict check", "day_of_week", p.DayOfWeek, "error", err)
		return nil, apperrors.Persistence("Failed to check schedule conflicts", err)
	}
	result, err := s.conflicts.Validate(p, existing, excludeID)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// rejectConflicts returns a CONFLICT error for an invalid result unless the
// caller forces it and overrides are enabled.
func (s *scheduleService) rejectConflicts(v *model.ScheduleValidation, force bool) error {
	if v.IsValid {
		return nil
	}
	if force && s.cfg.AllowConflictOverride {
		return nil
	}
	return apperrors.Conflict(v.Message)
}

func (s *scheduleService) translateRepoError(err error, id, message string) error {
	if errors.Is(err, scheduleerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Schedule", id)
	}
	if errors.Is(err, scheduleerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid schedule ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Persistence(message, err)
}

func (s *scheduleService) publishCreated(ctx context.Context, sc *model.RecurringSchedule) {
	event := model.ScheduleCreated{
		ScheduleID: sc.ID,
		Title:      sc.Title,
		DayOfWeek:  sc.DayOfWeek,
		StartTime:  sc.StartTime,
		EndTime:    sc.EndTime,
		Category:   sc.Category,
		CreatedBy:  middleware.PrincipalID(ctx),
	}
	if err := s.publisher.Publish(ctx, model.EventScheduleCreated, sc.ID, event); err != nil {
		s.cfg.Log.Warn("Failed to publish schedule event", "id", sc.ID, "error", err)
	}
}

func (s *scheduleService) proposal(req *model.ScheduleRequest) scheduling.Proposal {
	p := scheduling.Proposal{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Category:     req.Category,
		GraceMinutes: s.cfg.DefaultGraceMinutes,
	}
	if req.DayOfWeek != nil {
		p.DayOfWeek = *req.DayOfWeek
	}
	if req.GraceMinutes != nil {
		p.GraceMinutes = *req.GraceMinutes
	}
	return p
}

func (s *scheduleService) fromRequest(req *model.ScheduleRequest) *model.RecurringSchedule {
	sc := &model.RecurringSchedule{
		Title:           req.Title,
		DayOfWeek:       *req.DayOfWeek,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Category:        req.Category,
		MaxParticipants: req.MaxParticipants,
		IsActive:        true,
	}
	if req.IsActive != nil {
		sc.IsActive = *req.IsActive
	}
	return sc
}

// sanitize canonicalizes labels and times. Unparseable times are left as
// given so the conflict validator reports them.
func (s *scheduleService) sanitize(req *model.ScheduleRequest) {
	req.Title = sanitizer.NormalizeTitle(req.Title)
	req.Category = sanitizer.SanitizeCategory(req.Category)
	req.StartTime = normalizeTime(req.StartTime)
	req.EndTime = normalizeTime(req.EndTime)
}

func (s *scheduleService) sanitizeUpdate(updates *model.ScheduleUpdate) {
	if updates.Title != nil {
		t := sanitizer.NormalizeTitle(*updates.Title)
		updates.Title = &t
	}
	if updates.Category != nil {
		c := sanitizer.SanitizeCategory(*updates.Category)
		updates.Category = &c
	}
	if updates.StartTime != nil {
		t := normalizeTime(*updates.StartTime)
		updates.StartTime = &t
	}
	if updates.EndTime != nil {
		t := normalizeTime(*updates.EndTime)
		updates.EndTime = &t
	}
}

func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if n, err := timeofday.Normalize(s); err == nil {
		return n
	}
	return s
}

func mergeScheduleUpdates(existing *model.RecurringSchedule, updates *model.ScheduleUpdate) *model.RecurringSchedule {
	merged := *existing

	if updates.Title != nil {
		merged.Title = *updates.Title
	}
	if updates.DayOfWeek != nil {
		merged.DayOfWeek = *updates.DayOfWeek
	}
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}
	if updates.Category != nil {
		merged.Category = *updates.Category
	}
	if updates.MaxParticipants != nil {
		merged.MaxParticipants = *updates.MaxParticipants
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
