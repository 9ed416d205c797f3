package dto

import (
	"time"

	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// SubmitterRequest carries the optional identity of a non-anonymous submitter.
type SubmitterRequest struct {
	Name          string `json:"name" validate:"max=120"`
	StudentID     string `json:"studentId" validate:"max=64"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	ContactNumber string `json:"contactNumber" validate:"max=32"`
	Course        string `json:"course" validate:"max=120"`
	YearLevel     string `json:"yearLevel" validate:"omitempty,oneof='1st Year' '2nd Year' '3rd Year' '4th Year'"`
	WantsFollowUp bool   `json:"wantsFollowUp"`
}

// SuggestionCreateRequest is the public intake payload.
type SuggestionCreateRequest struct {
	Category    string            `json:"category" validate:"required,oneof=academic administrative extracurricular general"`
	Title       string            `json:"title" validate:"required,max=200"`
	Content     string            `json:"content" validate:"required,max=2000"`
	IsAnonymous bool              `json:"isAnonymous"`
	Submitter   *SubmitterRequest `json:"submitter,omitempty" validate:"omitempty"`
	Image       string            `json:"image,omitempty"`
}

// SuggestionCreateResponse is returned after a successful intake.
type SuggestionCreateResponse struct {
	TrackingCode     string    `json:"trackingCode"`
	Category         string    `json:"category"`
	Title            string    `json:"title"`
	Status           string    `json:"status"`
	Priority         string    `json:"priority"`
	AIPriorityReason string    `json:"aiPriorityReason"`
	AIAnalyzed       bool      `json:"aiAnalyzed"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SubmitterResponse exposes submitter details of an identified suggestion.
type SubmitterResponse struct {
	Name          string `json:"name"`
	StudentID     string `json:"studentId"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
	Course        string `json:"course"`
	YearLevel     string `json:"yearLevel"`
	WantsFollowUp bool   `json:"wantsFollowUp"`
}

// PublicStatusHistoryResponse is a status history entry without the acting staff identity.
type PublicStatusHistoryResponse struct {
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	ChangedAt time.Time `json:"changedAt"`
}

// StatusHistoryResponse is a status history entry as seen by staff.
type StatusHistoryResponse struct {
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
}

// PublicSuggestionResponse is the tracking view served to the public.
type PublicSuggestionResponse struct {
	TrackingCode     string                        `json:"trackingCode"`
	Category         string                        `json:"category"`
	Title            string                        `json:"title"`
	Content          string                        `json:"content"`
	IsAnonymous      bool                          `json:"isAnonymous"`
	Submitter        *SubmitterResponse            `json:"submitter,omitempty"`
	Status           string                        `json:"status"`
	Priority         string                        `json:"priority"`
	AIPriorityReason string                        `json:"aiPriorityReason"`
	ImageURL         string                        `json:"imageUrl,omitempty"`
	StatusHistory    []PublicStatusHistoryResponse `json:"statusHistory"`
	CreatedAt        time.Time                     `json:"createdAt"`
	UpdatedAt        time.Time                     `json:"updatedAt"`
}

// AdminSuggestionResponse is the staff view of a suggestion.
type AdminSuggestionResponse struct {
	ID               uint                    `json:"id"`
	TrackingCode     string                  `json:"trackingCode"`
	Category         string                  `json:"category"`
	Title            string                  `json:"title"`
	Content          string                  `json:"content"`
	IsAnonymous      bool                    `json:"isAnonymous"`
	Submitter        *SubmitterResponse      `json:"submitter,omitempty"`
	Status           string                  `json:"status"`
	Priority         string                  `json:"priority"`
	AIPriorityReason string                  `json:"aiPriorityReason"`
	AIAnalyzed       bool                    `json:"aiAnalyzed"`
	ImageURL         string                  `json:"imageUrl,omitempty"`
	IsRead           bool                    `json:"isRead"`
	ReadAt           *time.Time              `json:"readAt"`
	ReadBy           string                  `json:"readBy"`
	IsArchived       bool                    `json:"isArchived"`
	ArchivedAt       *time.Time              `json:"archivedAt"`
	ArchivedBy       string                  `json:"archivedBy"`
	StatusHistory    []StatusHistoryResponse `json:"statusHistory"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// NewSuggestionCreateResponse converts a freshly created suggestion.
func NewSuggestionCreateResponse(model models.Suggestion) SuggestionCreateResponse {
	return SuggestionCreateResponse{
		TrackingCode:     model.TrackingCode,
		Category:         string(model.Category),
		Title:            model.Title,
		Status:           string(model.Status),
		Priority:         string(model.Priority),
		AIPriorityReason: model.AIPriorityReason,
		AIAnalyzed:       model.AIAnalyzed,
		ImageURL:         model.ImageURL,
		CreatedAt:        model.CreatedAt,
	}
}

// NewPublicSuggestionResponse converts a suggestion for the public tracking page.
func NewPublicSuggestionResponse(model models.Suggestion) PublicSuggestionResponse {
	history := make([]PublicStatusHistoryResponse, 0, len(model.StatusHistory))
	for _, entry := range model.StatusHistory {
		history = append(history, PublicStatusHistoryResponse{
			Status:    string(entry.Status),
			Notes:     entry.Notes,
			ChangedAt: entry.ChangedAt,
		})
	}

	return PublicSuggestionResponse{
		TrackingCode:     model.TrackingCode,
		Category:         string(model.Category),
		Title:            model.Title,
		Content:          model.Content,
		IsAnonymous:      model.IsAnonymous,
		Submitter:        newSubmitterResponse(model),
		Status:           string(model.Status),
		Priority:         string(model.Priority),
		AIPriorityReason: model.AIPriorityReason,
		ImageURL:         model.ImageURL,
		StatusHistory:    history,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewAdminSuggestionResponse converts a suggestion for staff endpoints.
func NewAdminSuggestionResponse(model models.Suggestion) AdminSuggestionResponse {
	history := make([]StatusHistoryResponse, 0, len(model.StatusHistory))
	for _, entry := range model.StatusHistory {
		history = append(history, StatusHistoryResponse{
			Status:    string(entry.Status),
			Notes:     entry.Notes,
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
		})
	}

	return AdminSuggestionResponse{
		ID:               model.ID,
		TrackingCode:     model.TrackingCode,
		Category:         string(model.Category),
		Title:            model.Title,
		Content:          model.Content,
		IsAnonymous:      model.IsAnonymous,
		Submitter:        newSubmitterResponse(model),
		Status:           string(model.Status),
		Priority:         string(model.Priority),
		AIPriorityReason: model.AIPriorityReason,
		AIAnalyzed:       model.AIAnalyzed,
		ImageURL:         model.ImageURL,
		IsRead:           model.IsRead,
		ReadAt:           model.ReadAt,
		ReadBy:           model.ReadBy,
		IsArchived:       model.IsArchived,
		ArchivedAt:       model.ArchivedAt,
		ArchivedBy:       model.ArchivedBy,
		StatusHistory:    history,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// newSubmitterResponse returns nil for anonymous suggestions so the key is dropped entirely.
func newSubmitterResponse(model models.Suggestion) *SubmitterResponse {
	if model.IsAnonymous {
		return nil
	}
	return &SubmitterResponse{
		Name:          model.Submitter.Name,
		StudentID:     model.Submitter.StudentID,
		Email:         model.Submitter.Email,
		ContactNumber: model.Submitter.ContactNumber,
		Course:        model.Submitter.Course,
		YearLevel:     model.Submitter.YearLevel,
		WantsFollowUp: model.Submitter.WantsFollowUp,
	}
}
