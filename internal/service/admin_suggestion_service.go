package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	statsCacheKey   = "suggestions:stats"
	recentWindow    = 7 * 24 * time.Hour
)

var (
	// ErrInvalidSuggestionID indicates a malformed suggestion identifier.
	ErrInvalidSuggestionID = errors.New("invalid suggestion id")
	// ErrEmptyBulkDelete indicates a bulk delete without ids.
	ErrEmptyBulkDelete = errors.New("no suggestion ids provided")
)

// StatusChange is the outcome of a status update. Applied is the history
// entry written by this call.
type StatusChange struct {
	Suggestion dto.AdminSuggestionResponse
	OldStatus  models.SuggestionStatus
	Applied    models.SuggestionStatusHistory
}

// PriorityChange is the outcome of a priority update.
type PriorityChange struct {
	Suggestion  dto.AdminSuggestionResponse
	OldPriority models.SuggestionPriority
}

// ReadChange is the outcome of a mark-read call. Changed is false when the suggestion was already read.
type ReadChange struct {
	Suggestion dto.AdminSuggestionResponse
	Changed    bool
}

// ArchiveChange is the outcome of an archive toggle.
type ArchiveChange struct {
	Suggestion  dto.AdminSuggestionResponse
	WasArchived bool
}

// AdminSuggestionService exposes staff triage operations.
type AdminSuggestionService interface {
	List(ctx context.Context, req dto.AdminSuggestionListRequest) (dto.AdminSuggestionListResponse, error)
	Get(ctx context.Context, id uint) (dto.AdminSuggestionResponse, error)
	UpdateStatus(ctx context.Context, id uint, actor models.StaffIdentity, req dto.AdminStatusUpdateRequest) (StatusChange, error)
	UpdatePriority(ctx context.Context, id uint, req dto.AdminPriorityUpdateRequest) (PriorityChange, error)
	MarkRead(ctx context.Context, id uint, actor models.StaffIdentity) (ReadChange, error)
	ToggleArchive(ctx context.Context, id uint, actor models.StaffIdentity) (ArchiveChange, error)
	Delete(ctx context.Context, id uint) (models.SuggestionSummary, error)
	BulkDelete(ctx context.Context, req dto.AdminBulkDeleteRequest) (dto.AdminBulkDeleteResponse, error)
	Stats(ctx context.Context) (dto.SuggestionStatsResponse, error)
}

type adminSuggestionService struct {
	repo      repository.SuggestionRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAdminSuggestionService constructs the staff triage service. cache may be nil.
func NewAdminSuggestionService(repo repository.SuggestionRepository, validate *validator.Validate, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AdminSuggestionService {
	return &adminSuggestionService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "admin_suggestion_service").Logger(),
		now:       time.Now,
	}
}

func (s *adminSuggestionService) List(ctx context.Context, req dto.AdminSuggestionListRequest) (dto.AdminSuggestionListResponse, error) {
	page, limit := normalisePaging(req.Page, req.Limit)

	filter := repository.SuggestionFilter{
		Category: allToEmpty(req.Category),
		Status:   allToEmpty(req.Status),
		Search:   strings.TrimSpace(req.Search),
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Archived: normaliseArchived(req.Archived),
		Identity: normaliseIdentity(req.Identity),
		Sort:     normaliseSort(req.Sort),
		Page:     page,
		PageSize: limit,
	}

	suggestions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AdminSuggestionListResponse{}, fmt.Errorf("list suggestions: %w", err)
	}

	items := make([]dto.AdminSuggestionResponse, 0, len(suggestions))
	for _, suggestion := range suggestions {
		items = append(items, dto.NewAdminSuggestionResponse(suggestion))
	}

	return dto.AdminSuggestionListResponse{
		Items:      items,
		Pagination: paginationMeta(total, page, limit),
	}, nil
}

func (s *adminSuggestionService) Get(ctx context.Context, id uint) (dto.AdminSuggestionResponse, error) {
	if id == 0 {
		return dto.AdminSuggestionResponse{}, ErrInvalidSuggestionID
	}

	suggestion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.AdminSuggestionResponse{}, translateNotFound(err, "get suggestion")
	}

	return dto.NewAdminSuggestionResponse(suggestion), nil
}

func (s *adminSuggestionService) UpdateStatus(ctx context.Context, id uint, actor models.StaffIdentity, req dto.AdminStatusUpdateRequest) (StatusChange, error) {
	if id == 0 {
		return StatusChange{}, ErrInvalidSuggestionID
	}

	req.Status = strings.TrimSpace(req.Status)
	req.Notes = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(req.Notes)))
	if err := s.validator.Struct(req); err != nil {
		return StatusChange{}, err
	}

	ctx, span := s.startSpan(ctx, "suggestion.update_status", id)
	defer span.End()

	entry := models.SuggestionStatusHistory{
		Status:    models.SuggestionStatus(req.Status),
		Notes:     req.Notes,
		ChangedBy: actor.Label,
		ChangedAt: s.now().UTC(),
	}
	updated, oldStatus, err := s.repo.AppendStatus(ctx, id, entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_status_failed")
		return StatusChange{}, translateNotFound(err, "update status")
	}

	s.invalidateStats(ctx)
	s.logger.Info().
		Uint("suggestion_id", id).
		Str("from", string(oldStatus)).
		Str("to", req.Status).
		Str("actor", actor.Label).
		Msg("suggestion status updated")

	return StatusChange{Suggestion: dto.NewAdminSuggestionResponse(updated), OldStatus: oldStatus, Applied: entry}, nil
}

func (s *adminSuggestionService) UpdatePriority(ctx context.Context, id uint, req dto.AdminPriorityUpdateRequest) (PriorityChange, error) {
	if id == 0 {
		return PriorityChange{}, ErrInvalidSuggestionID
	}

	req.Priority = strings.ToLower(strings.TrimSpace(req.Priority))
	if err := s.validator.Struct(req); err != nil {
		return PriorityChange{}, err
	}

	ctx, span := s.startSpan(ctx, "suggestion.update_priority", id)
	defer span.End()

	updated, oldPriority, err := s.repo.UpdatePriority(ctx, id, models.SuggestionPriority(req.Priority))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_priority_failed")
		return PriorityChange{}, translateNotFound(err, "update priority")
	}

	s.invalidateStats(ctx)
	return PriorityChange{Suggestion: dto.NewAdminSuggestionResponse(updated), OldPriority: oldPriority}, nil
}

func (s *adminSuggestionService) MarkRead(ctx context.Context, id uint, actor models.StaffIdentity) (ReadChange, error) {
	if id == 0 {
		return ReadChange{}, ErrInvalidSuggestionID
	}

	updated, changed, err := s.repo.MarkRead(ctx, id, actor.Label, s.now().UTC())
	if err != nil {
		return ReadChange{}, translateNotFound(err, "mark read")
	}

	if changed {
		s.invalidateStats(ctx)
	}
	return ReadChange{Suggestion: dto.NewAdminSuggestionResponse(updated), Changed: changed}, nil
}

func (s *adminSuggestionService) ToggleArchive(ctx context.Context, id uint, actor models.StaffIdentity) (ArchiveChange, error) {
	if id == 0 {
		return ArchiveChange{}, ErrInvalidSuggestionID
	}

	ctx, span := s.startSpan(ctx, "suggestion.toggle_archive", id)
	defer span.End()

	updated, wasArchived, err := s.repo.ToggleArchive(ctx, id, actor.Label, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle_archive_failed")
		return ArchiveChange{}, translateNotFound(err, "toggle archive")
	}

	s.invalidateStats(ctx)
	return ArchiveChange{Suggestion: dto.NewAdminSuggestionResponse(updated), WasArchived: wasArchived}, nil
}

func (s *adminSuggestionService) Delete(ctx context.Context, id uint) (models.SuggestionSummary, error) {
	if id == 0 {
		return models.SuggestionSummary{}, ErrInvalidSuggestionID
	}

	ctx, span := s.startSpan(ctx, "suggestion.delete", id)
	defer span.End()

	summary, err := s.repo.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete_failed")
		return models.SuggestionSummary{}, fmt.Errorf("delete suggestion: %w", err)
	}
	if summary == nil {
		return models.SuggestionSummary{}, ErrSuggestionNotFound
	}

	s.invalidateStats(ctx)
	s.logger.Info().Uint("suggestion_id", id).Str("tracking_code", summary.TrackingCode).Msg("suggestion deleted")
	return *summary, nil
}

func (s *adminSuggestionService) BulkDelete(ctx context.Context, req dto.AdminBulkDeleteRequest) (dto.AdminBulkDeleteResponse, error) {
	if len(req.IDs) == 0 {
		return dto.AdminBulkDeleteResponse{}, ErrEmptyBulkDelete
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.AdminBulkDeleteResponse{}, err
	}

	tracer := otel.Tracer("github.com/noah-isme/suggestion-box-api/internal/service/admin_suggestion")
	ctx, span := tracer.Start(ctx, "suggestion.bulk_delete")
	span.SetAttributes(attribute.Int("suggestion.requested", len(req.IDs)))
	defer span.End()

	count, summaries, err := s.repo.BulkDelete(ctx, uniqueIDs(req.IDs))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk_delete_failed")
		return dto.AdminBulkDeleteResponse{}, fmt.Errorf("bulk delete suggestions: %w", err)
	}

	if count > 0 {
		s.invalidateStats(ctx)
	}
	span.SetAttributes(attribute.Int64("suggestion.deleted", count))

	if summaries == nil {
		summaries = []models.SuggestionSummary{}
	}
	return dto.AdminBulkDeleteResponse{DeletedCount: count, Deleted: summaries}, nil
}

// Stats serves dashboard counters, from Redis when a fresh snapshot exists.
func (s *adminSuggestionService) Stats(ctx context.Context) (dto.SuggestionStatsResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/suggestion-box-api/internal/service/admin_suggestion")
	ctx, span := tracer.Start(ctx, "suggestion.stats")
	span.SetAttributes(attribute.String("stats.cache_key", statsCacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, statsCacheKey).Result()
		if err == nil {
			var response dto.SuggestionStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("stats.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
			span.RecordError(err)
		}
	}

	now := s.now().UTC()
	counts, err := s.repo.Counts(ctx, now.Add(-recentWindow))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_failed")
		return dto.SuggestionStatsResponse{}, fmt.Errorf("suggestion stats: %w", err)
	}

	response := dto.SuggestionStatsResponse{
		Total:       counts.Total,
		Recent:      counts.Recent,
		ByCategory:  fillKeys(counts.ByCategory, categoryKeys()),
		ByStatus:    fillKeys(counts.ByStatus, statusKeys()),
		ByPriority:  fillKeys(counts.ByPriority, priorityKeys()),
		Anonymous:   counts.Anonymous,
		Identified:  counts.Total - counts.Anonymous,
		Unread:      counts.Unread,
		Archived:    counts.Archived,
		Deleted:     0,
		GeneratedAt: now,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *adminSuggestionService) invalidateStats(ctx context.Context) {
	invalidateStatsCache(ctx, s.cache, s.logger)
}

// invalidateStatsCache drops the cached dashboard counters. Intake and staff
// mutations both call it.
func invalidateStatsCache(ctx context.Context, cache *redis.Client, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, statsCacheKey).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate stats cache")
	}
}

func (s *adminSuggestionService) startSpan(ctx context.Context, name string, id uint) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/noah-isme/suggestion-box-api/internal/service/admin_suggestion")
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attribute.Int64("suggestion.id", int64(id)))
	return ctx, span
}

func translateNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSuggestionNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalisePaging(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func paginationMeta(total int64, page, limit int) dto.PaginationMeta {
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return dto.PaginationMeta{Total: total, Page: page, Pages: pages, Limit: limit}
}

func allToEmpty(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "all" {
		return ""
	}
	return trimmed
}

func normaliseArchived(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case dto.ArchivedOnly, "true":
		return repository.ArchiveScopeArchived
	case dto.ArchivedAll:
		return repository.ArchiveScopeAll
	default:
		return repository.ArchiveScopeActive
	}
}

func normaliseIdentity(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case dto.IdentityAnonymous:
		return repository.IdentityScopeAnonymous
	case dto.IdentityIdentified:
		return repository.IdentityScopeIdentified
	default:
		return repository.IdentityScopeAll
	}
}

func normaliseSort(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case dto.SortOldest:
		return repository.SortOldest
	case dto.SortUpdated:
		return repository.SortUpdated
	case dto.SortPriorityHigh:
		return repository.SortPriorityHigh
	case dto.SortPriorityLow:
		return repository.SortPriorityLow
	default:
		return repository.SortNewest
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func fillKeys(counts map[string]int64, keys []string) map[string]int64 {
	result := make(map[string]int64, len(keys))
	for _, key := range keys {
		result[key] = 0
	}
	for key, value := range counts {
		result[key] = value
	}
	return result
}

func categoryKeys() []string {
	keys := make([]string, 0, len(models.Categories()))
	for _, category := range models.Categories() {
		keys = append(keys, string(category))
	}
	return keys
}

func statusKeys() []string {
	keys := make([]string, 0, len(models.Statuses()))
	for _, status := range models.Statuses() {
		keys = append(keys, string(status))
	}
	return keys
}

func priorityKeys() []string {
	keys := make([]string, 0, len(models.Priorities()))
	for _, priority := range models.Priorities() {
		keys = append(keys, string(priority))
	}
	return keys
}
