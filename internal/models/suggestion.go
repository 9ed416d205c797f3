package models

import "time"

// SuggestionCategory enumerates the areas a suggestion can address.
type SuggestionCategory string

// SuggestionStatus enumerates the triage states of a suggestion.
type SuggestionStatus string

// SuggestionPriority enumerates the urgency levels of a suggestion.
type SuggestionPriority string

const (
	CategoryAcademic        SuggestionCategory = "academic"
	CategoryAdministrative  SuggestionCategory = "administrative"
	CategoryExtracurricular SuggestionCategory = "extracurricular"
	CategoryGeneral         SuggestionCategory = "general"
)

const (
	StatusSubmitted   SuggestionStatus = "submitted"
	StatusUnderReview SuggestionStatus = "under_review"
	StatusForwarded   SuggestionStatus = "forwarded"
	StatusActionTaken SuggestionStatus = "action_taken"
	StatusResolved    SuggestionStatus = "resolved"
	StatusRejected    SuggestionStatus = "rejected"
)

const (
	PriorityLow    SuggestionPriority = "low"
	PriorityMedium SuggestionPriority = "medium"
	PriorityHigh   SuggestionPriority = "high"
	PriorityUrgent SuggestionPriority = "urgent"
)

// Year levels accepted for an identified submitter.
var YearLevels = []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}

// Categories lists every accepted category.
func Categories() []SuggestionCategory {
	return []SuggestionCategory{CategoryAcademic, CategoryAdministrative, CategoryExtracurricular, CategoryGeneral}
}

// Statuses lists every triage state.
func Statuses() []SuggestionStatus {
	return []SuggestionStatus{StatusSubmitted, StatusUnderReview, StatusForwarded, StatusActionTaken, StatusResolved, StatusRejected}
}

// Priorities lists the priority levels from most to least urgent.
func Priorities() []SuggestionPriority {
	return []SuggestionPriority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}
}

// IsValid reports whether the category belongs to the fixed set.
func (c SuggestionCategory) IsValid() bool {
	for _, candidate := range Categories() {
		if c == candidate {
			return true
		}
	}
	return false
}

// IsValid reports whether the status belongs to the fixed set.
func (s SuggestionStatus) IsValid() bool {
	for _, candidate := range Statuses() {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsValid reports whether the priority belongs to the fixed set.
func (p SuggestionPriority) IsValid() bool {
	for _, candidate := range Priorities() {
		if p == candidate {
			return true
		}
	}
	return false
}

// Rank orders priorities with urgent first.
func (p SuggestionPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// SubmitterInfo holds the optional identity of a non-anonymous submitter.
type SubmitterInfo struct {
	Name          string `gorm:"size:120" json:"name"`
	StudentID     string `gorm:"size:64" json:"student_id"`
	Email         string `gorm:"size:255" json:"email"`
	ContactNumber string `gorm:"size:32" json:"contact_number"`
	Course        string `gorm:"size:120" json:"course"`
	YearLevel     string `gorm:"size:16" json:"year_level"`
	WantsFollowUp bool   `gorm:"not null;default:false" json:"wants_follow_up"`
}

// Suggestion is a student-submitted suggestion moving through staff triage.
type Suggestion struct {
	ID               uint                      `gorm:"primaryKey" json:"id"`
	TrackingCode     string                    `gorm:"size:64;uniqueIndex;not null" json:"tracking_code"`
	Category         SuggestionCategory        `gorm:"size:32;index;not null" json:"category"`
	Title            string                    `gorm:"size:200;not null" json:"title"`
	Content          string                    `gorm:"type:text;not null" json:"content"`
	IsAnonymous      bool                      `gorm:"index;not null;default:false" json:"is_anonymous"`
	Submitter        SubmitterInfo             `gorm:"embedded;embeddedPrefix:submitter_" json:"submitter"`
	Status           SuggestionStatus          `gorm:"size:32;index;not null;default:submitted" json:"status"`
	Priority         SuggestionPriority        `gorm:"size:16;index;not null;default:medium" json:"priority"`
	AIPriorityReason string                    `gorm:"type:text" json:"ai_priority_reason"`
	AIAnalyzed       bool                      `gorm:"not null;default:false" json:"ai_analyzed"`
	ImageURL         string                    `gorm:"size:512" json:"image_url"`
	IsRead           bool                      `gorm:"index;not null;default:false" json:"is_read"`
	ReadAt           *time.Time                `json:"read_at"`
	ReadBy           string                    `gorm:"size:120" json:"read_by"`
	IsArchived       bool                      `gorm:"index;not null;default:false" json:"is_archived"`
	ArchivedAt       *time.Time                `json:"archived_at"`
	ArchivedBy       string                    `gorm:"size:120" json:"archived_by"`
	StatusHistory    []SuggestionStatusHistory `gorm:"constraint:OnDelete:CASCADE" json:"status_history"`
	CreatedAt        time.Time                 `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// SuggestionStatusHistory is one append-only entry of a suggestion's status trail.
type SuggestionStatusHistory struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	SuggestionID uint             `gorm:"index;not null" json:"suggestion_id"`
	Status       SuggestionStatus `gorm:"size:32;not null" json:"status"`
	Notes        string           `gorm:"type:text" json:"notes"`
	ChangedBy    string           `gorm:"size:120" json:"changed_by"`
	ChangedAt    time.Time        `gorm:"not null" json:"changed_at"`
}

// SuggestionSummary is the minimal reference kept when a suggestion is deleted.
type SuggestionSummary struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	TrackingCode string `json:"trackingCode"`
}

// Summary returns the deletion reference for the suggestion.
func (s Suggestion) Summary() SuggestionSummary {
	return SuggestionSummary{ID: s.ID, Title: s.Title, TrackingCode: s.TrackingCode}
}
