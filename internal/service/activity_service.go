package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/observability"
	"github.com/noah-isme/suggestion-box-api/internal/repository"
)

// ActivityEntry describes a staff action to record.
type ActivityEntry struct {
	Action     models.ActivityAction
	Suggestion *models.SuggestionSummary
	Details    models.ActivityDetails
	IPAddress  string
	UserAgent  string
}

// ActivityService appends to and queries the staff activity ledger.
type ActivityService interface {
	// Append is best-effort: failures are logged and never returned.
	Append(ctx context.Context, credential string, entry ActivityEntry)
	List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error)
	Stats(ctx context.Context) (dto.AdminActivityStatsResponse, error)
	DeprecatedCount(ctx context.Context) (dto.DeprecatedActivityResponse, error)
	CleanupDeprecated(ctx context.Context) (dto.ActivityCleanupResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	directory StaffDirectory
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, directory StaffDirectory, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		directory: directory,
		logger:    logger.With().Str("component", "activity_service").Logger(),
		now:       time.Now,
	}
}

func (s *activityService) Append(ctx context.Context, credential string, entry ActivityEntry) {
	identity, ok := s.directory.Lookup(credential)
	if !ok {
		s.logger.Debug().Str("action", string(entry.Action)).Msg("activity skipped for unresolved credential")
		return
	}

	if !entry.Action.IsValid() {
		s.reject(entry.Action, fmt.Errorf("unknown action %q", entry.Action))
		return
	}
	if !models.DetailsMatchAction(entry.Action, entry.Details) {
		s.reject(entry.Action, fmt.Errorf("details %T do not belong to action %s", entry.Details, entry.Action))
		return
	}

	details, err := models.EncodeActivityDetails(entry.Details)
	if err != nil {
		s.reject(entry.Action, err)
		return
	}

	record := models.ActivityLog{
		AdminRole:  string(identity.Role),
		AdminLabel: identity.Label,
		Action:     entry.Action,
		Details:    details,
		IPAddress:  truncate(entry.IPAddress, 64),
		UserAgent:  truncate(entry.UserAgent, 512),
		CreatedAt:  s.now().UTC(),
	}
	if entry.Suggestion != nil {
		id := entry.Suggestion.ID
		record.SuggestionID = &id
		record.SuggestionTitle = truncate(entry.Suggestion.Title, 200)
		record.SuggestionTrackingCode = entry.Suggestion.TrackingCode
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		s.reject(entry.Action, err)
	}
}

func (s *activityService) reject(action models.ActivityAction, err error) {
	observability.ActivityAppendFailures().WithLabelValues(string(action)).Inc()
	s.logger.Warn().Err(err).Str("action", string(action)).Msg("failed to record activity")
}

func (s *activityService) List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error) {
	page, limit := normalisePaging(req.Page, req.Limit)

	filter := repository.ActivityLogFilter{
		Page:     page,
		PageSize: limit,
		Role:     allToEmpty(req.Role),
		Action:   allToEmpty(req.Action),
		Search:   strings.TrimSpace(req.Search),
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AdminActivityListResponse{}, fmt.Errorf("list activity logs: %w", err)
	}

	items := make([]dto.AdminActivityResponse, 0, len(entries))
	for _, entry := range entries {
		details, err := models.DecodeActivityDetails(entry.Action, entry.Details)
		if err != nil {
			s.logger.Error().Err(err).Uint("activity_id", entry.ID).Str("action", string(entry.Action)).Msg("stored activity details are unreadable")
		}
		items = append(items, dto.NewAdminActivityResponse(entry, details))
	}

	return dto.AdminActivityListResponse{
		Items:      items,
		Pagination: paginationMeta(total, page, limit),
	}, nil
}

func (s *activityService) Stats(ctx context.Context) (dto.AdminActivityStatsResponse, error) {
	now := s.now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := now.Add(-recentWindow)

	counts, err := s.repo.Counts(ctx, todayStart, weekStart)
	if err != nil {
		return dto.AdminActivityStatsResponse{}, fmt.Errorf("activity stats: %w", err)
	}

	byRole := make([]dto.ActivityRoleCount, 0, len(counts.ByRole))
	for _, row := range counts.ByRole {
		byRole = append(byRole, dto.ActivityRoleCount{Role: row.AdminRole, Label: row.AdminLabel, Count: row.Total})
	}

	return dto.AdminActivityStatsResponse{
		Total:     counts.Total,
		Today:     counts.Today,
		LastWeek:  counts.LastWeek,
		ByRole:    byRole,
		ByAction:  counts.ByAction,
		Generated: now,
	}, nil
}

func (s *activityService) DeprecatedCount(ctx context.Context) (dto.DeprecatedActivityResponse, error) {
	count, err := s.repo.CountByRoles(ctx, models.RetiredStaffRoles)
	if err != nil {
		return dto.DeprecatedActivityResponse{}, fmt.Errorf("count deprecated activity: %w", err)
	}
	return dto.DeprecatedActivityResponse{Count: count, Roles: models.RetiredStaffRoles}, nil
}

func (s *activityService) CleanupDeprecated(ctx context.Context) (dto.ActivityCleanupResponse, error) {
	deleted, err := s.repo.DeleteByRoles(ctx, models.RetiredStaffRoles)
	if err != nil {
		return dto.ActivityCleanupResponse{}, fmt.Errorf("cleanup deprecated activity: %w", err)
	}
	s.logger.Info().Int64("deleted", deleted).Strs("roles", models.RetiredStaffRoles).Msg("deprecated activity entries purged")
	return dto.ActivityCleanupResponse{DeletedCount: deleted}, nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
