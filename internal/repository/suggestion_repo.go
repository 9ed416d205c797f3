package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// Archive selectors understood by SuggestionFilter.Archived.
const (
	ArchiveScopeActive   = "active"
	ArchiveScopeArchived = "archived"
	ArchiveScopeAll      = "all"
)

// Identity selectors understood by SuggestionFilter.Identity.
const (
	IdentityScopeAll        = "all"
	IdentityScopeAnonymous  = "anonymous"
	IdentityScopeIdentified = "identified"
)

// Sort keys understood by SuggestionFilter.Sort.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortUpdated      = "updated"
	SortPriorityHigh = "priority_high"
	SortPriorityLow  = "priority_low"
)

const priorityRankSQL = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END"

// SuggestionFilter narrows suggestion list queries.
type SuggestionFilter struct {
	Category string
	Status   string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Archived string
	Identity string
	Sort     string
	Page     int
	PageSize int
}

// SuggestionCounts aggregates dashboard counters.
type SuggestionCounts struct {
	Total      int64
	Recent     int64
	ByCategory map[string]int64
	ByStatus   map[string]int64
	ByPriority map[string]int64
	Anonymous  int64
	Unread     int64
	Archived   int64
}

// SuggestionRepository persists suggestions and their status history.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *models.Suggestion) error
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
	GetByID(ctx context.Context, id uint) (models.Suggestion, error)
	GetByTrackingCode(ctx context.Context, code string) (models.Suggestion, error)
	List(ctx context.Context, filter SuggestionFilter) ([]models.Suggestion, int64, error)
	AppendStatus(ctx context.Context, id uint, entry models.SuggestionStatusHistory) (models.Suggestion, models.SuggestionStatus, error)
	UpdatePriority(ctx context.Context, id uint, priority models.SuggestionPriority) (models.Suggestion, models.SuggestionPriority, error)
	MarkRead(ctx context.Context, id uint, actor string, at time.Time) (models.Suggestion, bool, error)
	ToggleArchive(ctx context.Context, id uint, actor string, at time.Time) (models.Suggestion, bool, error)
	Delete(ctx context.Context, id uint) (*models.SuggestionSummary, error)
	BulkDelete(ctx context.Context, ids []uint) (int64, []models.SuggestionSummary, error)
	Counts(ctx context.Context, recentSince time.Time) (SuggestionCounts, error)
}

type suggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository constructs a repository backed by GORM.
func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) Create(ctx context.Context, suggestion *models.Suggestion) error {
	return r.db.WithContext(ctx).Create(suggestion).Error
}

func (r *suggestionRepository) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Suggestion{}).
		Where("tracking_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *suggestionRepository) GetByID(ctx context.Context, id uint) (models.Suggestion, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *suggestionRepository) GetByTrackingCode(ctx context.Context, code string) (models.Suggestion, error) {
	return r.first(r.db.WithContext(ctx), "tracking_code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (r *suggestionRepository) first(db *gorm.DB, query string, args ...interface{}) (models.Suggestion, error) {
	var suggestion models.Suggestion
	err := db.Preload("StatusHistory", orderHistory).
		Where(query, args...).
		First(&suggestion).Error
	if err != nil {
		return models.Suggestion{}, err
	}
	return suggestion, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching term as a literal
// substring. Use it with ESCAPE '\'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func orderHistory(tx *gorm.DB) *gorm.DB {
	return tx.Order("changed_at ASC").Order("id ASC")
}

func (r *suggestionRepository) List(ctx context.Context, filter SuggestionFilter) ([]models.Suggestion, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Suggestion{})

	switch filter.Archived {
	case ArchiveScopeAll:
	case ArchiveScopeArchived:
		query = query.Where("is_archived = ?", true)
	default:
		query = query.Where("is_archived = ?", false)
	}

	switch filter.Identity {
	case IdentityScopeAnonymous:
		query = query.Where("is_anonymous = ?", true)
	case IdentityScopeIdentified:
		query = query.Where("is_anonymous = ?", false)
	}

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\' OR LOWER(tracking_code) LIKE ? ESCAPE '\')`, like, like, like)
	}

	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}

	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySuggestionSort(query, filter.Sort)

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var suggestions []models.Suggestion
	if err := query.Preload("StatusHistory", orderHistory).Find(&suggestions).Error; err != nil {
		return nil, 0, err
	}

	return suggestions, total, nil
}

func applySuggestionSort(query *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortOldest:
		return query.Order("created_at ASC").Order("id ASC")
	case SortUpdated:
		return query.Order("updated_at DESC").Order("id DESC")
	case SortPriorityHigh:
		return query.Order(priorityRankSQL + " ASC").Order("created_at DESC").Order("id DESC")
	case SortPriorityLow:
		return query.Order(priorityRankSQL + " DESC").Order("created_at DESC").Order("id DESC")
	default:
		return query.Order("created_at DESC").Order("id DESC")
	}
}

func (r *suggestionRepository) AppendStatus(ctx context.Context, id uint, entry models.SuggestionStatusHistory) (models.Suggestion, models.SuggestionStatus, error) {
	var updated models.Suggestion
	var oldStatus models.SuggestionStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		oldStatus = current.Status

		entry.ID = 0
		entry.SuggestionID = id
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Suggestion{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"status": entry.Status, "updated_at": entry.ChangedAt}).Error; err != nil {
			return err
		}

		updated, err = r.first(tx, "id = ?", id)
		return err
	})
	if err != nil {
		return models.Suggestion{}, "", err
	}

	return updated, oldStatus, nil
}

func (r *suggestionRepository) UpdatePriority(ctx context.Context, id uint, priority models.SuggestionPriority) (models.Suggestion, models.SuggestionPriority, error) {
	var updated models.Suggestion
	var oldPriority models.SuggestionPriority

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		oldPriority = current.Priority

		if err := tx.Model(&models.Suggestion{}).
			Where("id = ?", id).
			Update("priority", priority).Error; err != nil {
			return err
		}

		updated, err = r.first(tx, "id = ?", id)
		return err
	})
	if err != nil {
		return models.Suggestion{}, "", err
	}

	return updated, oldPriority, nil
}

// MarkRead flips is_read once. The second return value reports whether this call performed the transition.
func (r *suggestionRepository) MarkRead(ctx context.Context, id uint, actor string, at time.Time) (models.Suggestion, bool, error) {
	var updated models.Suggestion
	var changed bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.first(tx, "id = ?", id); err != nil {
			return err
		}

		result := tx.Model(&models.Suggestion{}).
			Where("id = ?", id).
			Where("is_read = ?", false).
			Updates(map[string]interface{}{"is_read": true, "read_at": at, "read_by": actor})
		if result.Error != nil {
			return result.Error
		}
		changed = result.RowsAffected > 0

		var err error
		updated, err = r.first(tx, "id = ?", id)
		return err
	})
	if err != nil {
		return models.Suggestion{}, false, err
	}

	return updated, changed, nil
}

// ToggleArchive flips is_archived and returns the state held before the call.
func (r *suggestionRepository) ToggleArchive(ctx context.Context, id uint, actor string, at time.Time) (models.Suggestion, bool, error) {
	var updated models.Suggestion
	var wasArchived bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		wasArchived = current.IsArchived

		if err := tx.Model(&models.Suggestion{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"is_archived": !wasArchived,
				"archived_at": at,
				"archived_by": actor,
			}).Error; err != nil {
			return err
		}

		updated, err = r.first(tx, "id = ?", id)
		return err
	})
	if err != nil {
		return models.Suggestion{}, false, err
	}

	return updated, wasArchived, nil
}

// Delete permanently removes a suggestion. It returns nil when the suggestion does not exist.
func (r *suggestionRepository) Delete(ctx context.Context, id uint) (*models.SuggestionSummary, error) {
	var summary *models.SuggestionSummary

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var suggestion models.Suggestion
		if err := tx.Select("id", "title", "tracking_code").First(&suggestion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("suggestion_id = ?", id).Delete(&models.SuggestionStatusHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Suggestion{}, id).Error; err != nil {
			return err
		}

		s := suggestion.Summary()
		summary = &s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// BulkDelete removes every existing suggestion among ids; unknown ids are ignored.
func (r *suggestionRepository) BulkDelete(ctx context.Context, ids []uint) (int64, []models.SuggestionSummary, error) {
	if len(ids) == 0 {
		return 0, nil, nil
	}

	var deleted int64
	summaries := make([]models.SuggestionSummary, 0, len(ids))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []models.Suggestion
		if err := tx.Select("id", "title", "tracking_code").
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&found).Error; err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}

		foundIDs := make([]uint, 0, len(found))
		for _, suggestion := range found {
			foundIDs = append(foundIDs, suggestion.ID)
			summaries = append(summaries, suggestion.Summary())
		}

		if err := tx.Where("suggestion_id IN ?", foundIDs).Delete(&models.SuggestionStatusHistory{}).Error; err != nil {
			return err
		}

		result := tx.Where("id IN ?", foundIDs).Delete(&models.Suggestion{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	return deleted, summaries, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func (r *suggestionRepository) Counts(ctx context.Context, recentSince time.Time) (SuggestionCounts, error) {
	active := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Suggestion{}).Where("is_archived = ?", false)
	}

	counts := SuggestionCounts{}

	if err := active().Count(&counts.Total).Error; err != nil {
		return SuggestionCounts{}, err
	}
	if err := active().Where("created_at >= ?", recentSince).Count(&counts.Recent).Error; err != nil {
		return SuggestionCounts{}, err
	}
	if err := active().Where("is_anonymous = ?", true).Count(&counts.Anonymous).Error; err != nil {
		return SuggestionCounts{}, err
	}
	if err := active().Where("is_read = ?", false).Count(&counts.Unread).Error; err != nil {
		return SuggestionCounts{}, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Suggestion{}).Where("is_archived = ?", true).Count(&counts.Archived).Error; err != nil {
		return SuggestionCounts{}, err
	}

	var err error
	if counts.ByCategory, err = groupBy(active(), "category"); err != nil {
		return SuggestionCounts{}, err
	}
	if counts.ByStatus, err = groupBy(active(), "status"); err != nil {
		return SuggestionCounts{}, err
	}
	if counts.ByPriority, err = groupBy(active(), "priority"); err != nil {
		return SuggestionCounts{}, err
	}

	return counts, nil
}

func groupBy(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := query.Select(column + " AS group_key, COUNT(*) AS total").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.GroupKey] = row.Total
	}
	return result, nil
}
