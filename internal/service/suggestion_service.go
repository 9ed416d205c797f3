package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/observability"
	"github.com/noah-isme/suggestion-box-api/internal/repository"
)

const trackingCodeAttempts = 5

var (
	// ErrSuggestionNotFound indicates the suggestion does not exist.
	ErrSuggestionNotFound = errors.New("suggestion not found")
	// ErrTrackingCodeExhausted indicates no unique tracking code could be generated.
	ErrTrackingCodeExhausted = errors.New("could not allocate a unique tracking code")
)

// SuggestionService handles the public intake and tracking flows.
type SuggestionService interface {
	Create(ctx context.Context, req dto.SuggestionCreateRequest) (dto.SuggestionCreateResponse, error)
	Track(ctx context.Context, trackingCode string) (dto.PublicSuggestionResponse, error)
}

type suggestionService struct {
	repo        repository.SuggestionRepository
	classifier  ClassificationService
	attachments AttachmentService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	cache       *redis.Client
	prefix      string
	logger      zerolog.Logger
	now         func() time.Time
	randomCode  func() string
}

// NewSuggestionService constructs the public suggestion service. cache is the
// statistics cache cleared after every submission and may be nil.
func NewSuggestionService(
	repo repository.SuggestionRepository,
	classifier ClassificationService,
	attachments AttachmentService,
	validate *validator.Validate,
	cache *redis.Client,
	trackingPrefix string,
	logger zerolog.Logger,
) SuggestionService {
	prefix := strings.ToUpper(strings.TrimSpace(trackingPrefix))
	if prefix == "" {
		prefix = "SUG"
	}
	return &suggestionService{
		repo:        repo,
		classifier:  classifier,
		attachments: attachments,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		cache:       cache,
		prefix:      prefix,
		logger:      logger.With().Str("component", "suggestion_service").Logger(),
		now:         time.Now,
		randomCode:  randomSuffix,
	}
}

func (s *suggestionService) Create(ctx context.Context, req dto.SuggestionCreateRequest) (dto.SuggestionCreateResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/suggestion-box-api/internal/service/suggestion")
	ctx, span := tracer.Start(ctx, "suggestion.create")
	defer span.End()

	req = s.normalise(req)
	if err := s.validator.Struct(req); err != nil {
		return dto.SuggestionCreateResponse{}, err
	}

	category := models.SuggestionCategory(req.Category)
	span.SetAttributes(
		attribute.String("suggestion.category", req.Category),
		attribute.Bool("suggestion.anonymous", req.IsAnonymous),
		attribute.Bool("suggestion.has_image", req.Image != ""),
	)

	classification := s.classifier.Classify(ctx, req.Title, req.Content, category)

	// Allocate before uploading: an image is only hosted once a code exists.
	code, err := s.allocateTrackingCode(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tracking_code_failed")
		return dto.SuggestionCreateResponse{}, err
	}

	imageURL := ""
	if req.Image != "" {
		result := s.attachments.Store(ctx, req.Image)
		if result.Success {
			imageURL = result.URL
		} else {
			s.logger.Warn().Str("reason", result.Error).Msg("suggestion saved without attachment")
		}
	}

	now := s.now().UTC()
	suggestion := models.Suggestion{
		TrackingCode:     code,
		Category:         category,
		Title:            req.Title,
		Content:          req.Content,
		IsAnonymous:      req.IsAnonymous,
		Status:           models.StatusSubmitted,
		Priority:         classification.Priority,
		AIPriorityReason: classification.Reason,
		AIAnalyzed:       classification.WasClassified,
		ImageURL:         imageURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if !req.IsAnonymous && req.Submitter != nil {
		suggestion.Submitter = models.SubmitterInfo{
			Name:          req.Submitter.Name,
			StudentID:     req.Submitter.StudentID,
			Email:         req.Submitter.Email,
			ContactNumber: req.Submitter.ContactNumber,
			Course:        req.Submitter.Course,
			YearLevel:     req.Submitter.YearLevel,
			WantsFollowUp: req.Submitter.WantsFollowUp,
		}
	}

	if err := s.repo.Create(ctx, &suggestion); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		if imageURL != "" {
			s.logger.Warn().Str("tracking_code", code).Str("image_url", imageURL).Msg("attachment orphaned by failed submission")
		}
		return dto.SuggestionCreateResponse{}, fmt.Errorf("create suggestion: %w", err)
	}

	invalidateStatsCache(ctx, s.cache, s.logger)

	observability.SuggestionsCreated().WithLabelValues(string(suggestion.Category), string(suggestion.Priority)).Inc()
	span.SetAttributes(
		attribute.String("suggestion.tracking_code", suggestion.TrackingCode),
		attribute.String("suggestion.priority", string(suggestion.Priority)),
	)
	s.logger.Info().
		Str("tracking_code", suggestion.TrackingCode).
		Str("category", string(suggestion.Category)).
		Str("priority", string(suggestion.Priority)).
		Bool("ai_analyzed", suggestion.AIAnalyzed).
		Bool("anonymous", suggestion.IsAnonymous).
		Msg("suggestion submitted")

	return dto.NewSuggestionCreateResponse(suggestion), nil
}

func (s *suggestionService) Track(ctx context.Context, trackingCode string) (dto.PublicSuggestionResponse, error) {
	code := strings.TrimSpace(trackingCode)
	if code == "" {
		return dto.PublicSuggestionResponse{}, ErrSuggestionNotFound
	}

	suggestion, err := s.repo.GetByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PublicSuggestionResponse{}, ErrSuggestionNotFound
		}
		return dto.PublicSuggestionResponse{}, fmt.Errorf("track suggestion: %w", err)
	}

	return dto.NewPublicSuggestionResponse(suggestion), nil
}

// normalise trims every text field and strips markup from the free-text ones.
func (s *suggestionService) normalise(req dto.SuggestionCreateRequest) dto.SuggestionCreateRequest {
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Title = s.clean(req.Title)
	req.Content = s.clean(req.Content)
	req.Image = strings.TrimSpace(req.Image)

	if req.IsAnonymous {
		req.Submitter = nil
		return req
	}

	if req.Submitter != nil {
		submitter := *req.Submitter
		submitter.Name = s.clean(submitter.Name)
		submitter.StudentID = strings.TrimSpace(submitter.StudentID)
		submitter.Email = strings.ToLower(strings.TrimSpace(submitter.Email))
		submitter.ContactNumber = strings.TrimSpace(submitter.ContactNumber)
		submitter.Course = s.clean(submitter.Course)
		submitter.YearLevel = strings.TrimSpace(submitter.YearLevel)
		req.Submitter = &submitter
	}

	return req
}

func (s *suggestionService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(strings.TrimSpace(value))))
}

func (s *suggestionService) allocateTrackingCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < trackingCodeAttempts; attempt++ {
		code := s.trackingCode()
		exists, err := s.repo.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check tracking code: %w", err)
		}
		if !exists {
			return code, nil
		}
		s.logger.Debug().Str("tracking_code", code).Int("attempt", attempt+1).Msg("tracking code collision")
	}
	return "", ErrTrackingCodeExhausted
}

// trackingCode renders PREFIX-<base36 millis>-<4 random chars>.
func (s *suggestionService) trackingCode() string {
	stamp := strings.ToUpper(strconv.FormatInt(s.now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", s.prefix, stamp, s.randomCode())
}

// randomSuffix draws from the base32 alphabet (A-Z, 2-7).
func randomSuffix() string {
	return rand.Text()[:4]
}
