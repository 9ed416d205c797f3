package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ActivityAction enumerates the staff actions recorded in the activity log.
type ActivityAction string

const (
	ActionLogin               ActivityAction = "login"
	ActionLogout              ActivityAction = "logout"
	ActionSessionEnded        ActivityAction = "session_ended"
	ActionViewSuggestion      ActivityAction = "view_suggestion"
	ActionUpdateStatus        ActivityAction = "update_status"
	ActionUpdatePriority      ActivityAction = "update_priority"
	ActionArchiveSuggestion   ActivityAction = "archive_suggestion"
	ActionUnarchiveSuggestion ActivityAction = "unarchive_suggestion"
	ActionDeleteSuggestion    ActivityAction = "delete_suggestion"
	ActionBulkDelete          ActivityAction = "bulk_delete"
	ActionRestoreSuggestion   ActivityAction = "restore_suggestion"
	ActionPermanentDelete     ActivityAction = "permanent_delete"
	ActionEmptyTrash          ActivityAction = "empty_trash"
	ActionMarkRead            ActivityAction = "mark_read"
)

// ActivityActions lists the full action vocabulary.
func ActivityActions() []ActivityAction {
	return []ActivityAction{
		ActionLogin, ActionLogout, ActionSessionEnded, ActionViewSuggestion,
		ActionUpdateStatus, ActionUpdatePriority, ActionArchiveSuggestion,
		ActionUnarchiveSuggestion, ActionDeleteSuggestion, ActionBulkDelete,
		ActionRestoreSuggestion, ActionPermanentDelete, ActionEmptyTrash, ActionMarkRead,
	}
}

// IsValid reports whether the action belongs to the vocabulary.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range ActivityActions() {
		if a == candidate {
			return true
		}
	}
	return false
}

// ActivityLog is an immutable record of a staff action.
type ActivityLog struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	AdminRole              string         `gorm:"size:64;index;not null" json:"admin_role"`
	AdminLabel             string         `gorm:"size:120;not null" json:"admin_label"`
	Action                 ActivityAction `gorm:"size:64;index;not null" json:"action"`
	SuggestionID           *uint          `gorm:"index" json:"suggestion_id"`
	SuggestionTitle        string         `gorm:"size:200" json:"suggestion_title"`
	SuggestionTrackingCode string         `gorm:"size:64;index" json:"suggestion_tracking_code"`
	Details                datatypes.JSON `json:"details"`
	IPAddress              string         `gorm:"size:64" json:"-"`
	UserAgent              string         `gorm:"size:512" json:"-"`
	CreatedAt              time.Time      `gorm:"index" json:"created_at"`
}

// ActivityDetails is the per-action payload attached to an activity log entry.
type ActivityDetails interface {
	activityDetails()
}

// StatusChangeDetails accompanies update_status.
type StatusChangeDetails struct {
	OldStatus SuggestionStatus `json:"oldStatus"`
	NewStatus SuggestionStatus `json:"newStatus"`
	Notes     string           `json:"notes,omitempty"`
}

// PriorityChangeDetails accompanies update_priority.
type PriorityChangeDetails struct {
	OldPriority SuggestionPriority `json:"oldPriority"`
	NewPriority SuggestionPriority `json:"newPriority"`
}

// ArchiveDetails accompanies archive_suggestion and unarchive_suggestion.
type ArchiveDetails struct {
	WasArchived bool `json:"wasArchived"`
	IsArchived  bool `json:"isArchived"`
}

// DeletionDetails accompanies delete_suggestion.
type DeletionDetails struct {
	Title        string `json:"title"`
	TrackingCode string `json:"trackingCode"`
}

// BulkDeleteDetails accompanies bulk_delete.
type BulkDeleteDetails struct {
	Count              int                 `json:"count"`
	DeletedSuggestions []SuggestionSummary `json:"deletedSuggestions"`
}

// SessionDetails accompanies login, logout and session_ended.
type SessionDetails struct {
	Reason string `json:"reason,omitempty"`
}

// ReadDetails accompanies mark_read.
type ReadDetails struct {
	ReadAt time.Time `json:"readAt"`
}

func (StatusChangeDetails) activityDetails()   {}
func (PriorityChangeDetails) activityDetails() {}
func (ArchiveDetails) activityDetails()        {}
func (DeletionDetails) activityDetails()       {}
func (BulkDeleteDetails) activityDetails()     {}
func (SessionDetails) activityDetails()        {}
func (ReadDetails) activityDetails()           {}

// DetailsMatchAction reports whether the payload shape is the one defined for the action.
// A nil payload is accepted for every action.
func DetailsMatchAction(action ActivityAction, details ActivityDetails) bool {
	if details == nil {
		return true
	}
	switch details.(type) {
	case StatusChangeDetails:
		return action == ActionUpdateStatus
	case PriorityChangeDetails:
		return action == ActionUpdatePriority
	case ArchiveDetails:
		return action == ActionArchiveSuggestion || action == ActionUnarchiveSuggestion
	case DeletionDetails:
		return action == ActionDeleteSuggestion
	case BulkDeleteDetails:
		return action == ActionBulkDelete
	case SessionDetails:
		return action == ActionLogin || action == ActionLogout || action == ActionSessionEnded
	case ReadDetails:
		return action == ActionMarkRead
	default:
		return false
	}
}

// EncodeActivityDetails serialises a payload for storage.
func EncodeActivityDetails(details ActivityDetails) (datatypes.JSON, error) {
	if details == nil {
		return nil, nil
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode activity details: %w", err)
	}
	return datatypes.JSON(payload), nil
}

// DecodeActivityDetails restores the typed payload stored for an action.
func DecodeActivityDetails(action ActivityAction, raw datatypes.JSON) (ActivityDetails, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var target ActivityDetails
	var err error
	switch action {
	case ActionUpdateStatus:
		var d StatusChangeDetails
		err = json.Unmarshal(raw, &d)
		target = d
	case ActionUpdatePriority:
		var d PriorityChangeDetails
		err = json.Unmarshal(raw, &d)
		target = d
	case ActionArchiveSuggestion, ActionUnarchiveSuggestion:
		var d ArchiveDetails
		err = json.Unmarshal(raw, &d)
		target = d
	case ActionDeleteSuggestion:
		var d DeletionDetails
		err = json.Unmarshal(raw, &d)
		target = d
	case ActionBulkDelete:
		var d BulkDeleteDetails
		err = json.Unmarshal(raw, &d)
		target = d
	case ActionLogin, ActionLogout, ActionSessionEnded:
		var d SessionDetails
		err = json.Unmarshal(raw, &d)
		target = d
	case ActionMarkRead:
		var d ReadDetails
		err = json.Unmarshal(raw, &d)
		target = d
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s details: %w", action, err)
	}
	return target, nil
}
