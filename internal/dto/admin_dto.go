package dto

import (
	"time"

	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// Archived-state selectors accepted by the admin suggestion list.
const (
	ArchivedActive = "active"
	ArchivedOnly   = "archived"
	ArchivedAll    = "all"
)

// Identity selectors accepted by the admin suggestion list.
const (
	IdentityAll        = "all"
	IdentityAnonymous  = "anonymous"
	IdentityIdentified = "identified"
)

// Sort orders accepted by the admin suggestion list.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortUpdated      = "updated"
	SortPriorityHigh = "priority_high"
	SortPriorityLow  = "priority_low"
)

// AdminSuggestionListRequest defines filters for listing suggestions.
type AdminSuggestionListRequest struct {
	Page     int
	Limit    int
	Category string
	Status   string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     string
	Archived string
	Identity string
}

// AdminSuggestionListResponse wraps a paginated suggestion list.
type AdminSuggestionListResponse struct {
	Items      []AdminSuggestionResponse `json:"items"`
	Pagination PaginationMeta            `json:"pagination"`
}

// AdminStatusUpdateRequest changes the triage status of a suggestion.
type AdminStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted under_review forwarded action_taken resolved rejected"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// AdminPriorityUpdateRequest changes the priority of a suggestion.
type AdminPriorityUpdateRequest struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high urgent"`
}

// AdminBulkDeleteRequest removes several suggestions at once.
type AdminBulkDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
}

// AdminBulkDeleteResponse reports the outcome of a bulk delete.
type AdminBulkDeleteResponse struct {
	DeletedCount int64                      `json:"deletedCount"`
	Deleted      []models.SuggestionSummary `json:"deletedSuggestions"`
}

// SuggestionStatsResponse aggregates dashboard counters.
type SuggestionStatsResponse struct {
	Total       int64            `json:"total"`
	Recent      int64            `json:"recent"`
	ByCategory  map[string]int64 `json:"byCategory"`
	ByStatus    map[string]int64 `json:"byStatus"`
	ByPriority  map[string]int64 `json:"byPriority"`
	Anonymous   int64            `json:"anonymous"`
	Identified  int64            `json:"identified"`
	Unread      int64            `json:"unread"`
	Archived    int64            `json:"archived"`
	Deleted     int64            `json:"deleted"`
	GeneratedAt time.Time        `json:"generatedAt"`
	CacheHit    bool             `json:"cacheHit"`
}

// AdminActivityListRequest defines filters for retrieving activity logs.
type AdminActivityListRequest struct {
	Page     int
	Limit    int
	Role     string
	Action   string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// AdminActivityResponse serialises an activity log entry. Network metadata is never exposed.
type AdminActivityResponse struct {
	ID                     uint                   `json:"id"`
	AdminRole              string                 `json:"adminRole"`
	AdminLabel             string                 `json:"adminLabel"`
	Action                 string                 `json:"action"`
	SuggestionID           *uint                  `json:"suggestionId"`
	SuggestionTitle        string                 `json:"suggestionTitle,omitempty"`
	SuggestionTrackingCode string                 `json:"suggestionTrackingCode,omitempty"`
	Details                models.ActivityDetails `json:"details,omitempty"`
	CreatedAt              time.Time              `json:"createdAt"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// ActivityRoleCount is the number of entries recorded by one role.
type ActivityRoleCount struct {
	Role  string `json:"role"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// AdminActivityStatsResponse aggregates activity log counters.
type AdminActivityStatsResponse struct {
	Total     int64               `json:"total"`
	Today     int64               `json:"today"`
	LastWeek  int64               `json:"last7Days"`
	ByRole    []ActivityRoleCount `json:"byRole"`
	ByAction  map[string]int64    `json:"byAction"`
	Generated time.Time           `json:"generatedAt"`
}

// DeprecatedActivityResponse reports entries recorded under retired roles.
type DeprecatedActivityResponse struct {
	Count int64    `json:"count"`
	Roles []string `json:"roles"`
}

// ActivityCleanupResponse reports how many deprecated entries were purged.
type ActivityCleanupResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// AdminVerifyRequest exchanges a shared secret for the staff identity.
type AdminVerifyRequest struct {
	Password string `json:"password" validate:"required"`
}

// NewAdminActivityResponse converts an activity log model into a DTO. details
// is the payload already decoded from model.Details.
func NewAdminActivityResponse(model models.ActivityLog, details models.ActivityDetails) AdminActivityResponse {
	return AdminActivityResponse{
		ID:                     model.ID,
		AdminRole:              model.AdminRole,
		AdminLabel:             model.AdminLabel,
		Action:                 string(model.Action),
		SuggestionID:           model.SuggestionID,
		SuggestionTitle:        model.SuggestionTitle,
		SuggestionTrackingCode: model.SuggestionTrackingCode,
		Details:                details,
		CreatedAt:              model.CreatedAt,
	}
}
