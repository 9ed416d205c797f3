package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// ActivityLogFilter narrows activity log queries.
type ActivityLogFilter struct {
	Page     int
	PageSize int
	Role     string
	Action   string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// ActivityRoleCount groups entries by the acting role.
type ActivityRoleCount struct {
	AdminRole  string
	AdminLabel string
	Total      int64
}

// ActivityCounts aggregates activity log counters.
type ActivityCounts struct {
	Total    int64
	Today    int64
	LastWeek int64
	ByRole   []ActivityRoleCount
	ByAction map[string]int64
}

// ActivityLogRepository persists audit trail events.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
	Counts(ctx context.Context, todayStart, weekStart time.Time) (ActivityCounts, error)
	CountByRoles(ctx context.Context, roles []string) (int64, error)
	DeleteByRoles(ctx context.Context, roles []string) (int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if filter.Role != "" {
		query = query.Where("admin_role = ?", filter.Role)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where(`(LOWER(suggestion_tracking_code) LIKE ? ESCAPE '\' OR LOWER(suggestion_title) LIKE ? ESCAPE '\' OR LOWER(admin_label) LIKE ? ESCAPE '\')`, like, like, like)
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

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entries []models.ActivityLog
	if err := query.Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

type actionCount struct {
	Action string
	Total  int64
}

func (r *activityLogRepository) Counts(ctx context.Context, todayStart, weekStart time.Time) (ActivityCounts, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.ActivityLog{})
	}

	counts := ActivityCounts{ByAction: map[string]int64{}}

	if err := base().Count(&counts.Total).Error; err != nil {
		return ActivityCounts{}, err
	}
	if err := base().Where("created_at >= ?", todayStart).Count(&counts.Today).Error; err != nil {
		return ActivityCounts{}, err
	}
	if err := base().Where("created_at >= ?", weekStart).Count(&counts.LastWeek).Error; err != nil {
		return ActivityCounts{}, err
	}

	if err := base().
		Select("admin_role, MAX(admin_label) AS admin_label, COUNT(*) AS total").
		Group("admin_role").
		Order("total DESC").
		Scan(&counts.ByRole).Error; err != nil {
		return ActivityCounts{}, err
	}

	var actions []actionCount
	if err := base().
		Select("action, COUNT(*) AS total").
		Group("action").
		Scan(&actions).Error; err != nil {
		return ActivityCounts{}, err
	}
	for _, row := range actions {
		counts.ByAction[row.Action] = row.Total
	}

	return counts, nil
}

func (r *activityLogRepository) CountByRoles(ctx context.Context, roles []string) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ActivityLog{}).
		Where("admin_role IN ?", roles).
		Count(&count).Error
	return count, err
}

func (r *activityLogRepository) DeleteByRoles(ctx context.Context, roles []string) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("admin_role IN ?", roles).
		Delete(&models.ActivityLog{})
	return result.RowsAffected, result.Error
}
