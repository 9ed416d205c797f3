package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/observability"
	"github.com/noah-isme/suggestion-box-api/pkg/ai"
)

const (
	reasonUnconfigured = "Automatic classification is not configured; default priority assigned."
	reasonUnavailable  = "Automatic classification was unavailable; default priority assigned."
	reasonTimeout      = "Automatic classification timed out; default priority assigned."
	reasonInvalid      = "Automatic classification returned an unusable answer; default priority assigned."
)

// Classification is the outcome of a priority classification attempt.
type Classification struct {
	Priority      models.SuggestionPriority
	Reason        string
	WasClassified bool
}

// ClassificationService assigns a priority to a new suggestion. It never fails.
type ClassificationService interface {
	Classify(ctx context.Context, title, content string, category models.SuggestionCategory) Classification
}

type classificationService struct {
	classifier ai.Classifier
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewClassificationService wraps an optional classifier. A nil classifier yields the fallback for every call.
func NewClassificationService(classifier ai.Classifier, timeout time.Duration, logger zerolog.Logger) ClassificationService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &classificationService{
		classifier: classifier,
		timeout:    timeout,
		logger:     logger.With().Str("component", "classification_service").Logger(),
	}
}

func (s *classificationService) Classify(ctx context.Context, title, content string, category models.SuggestionCategory) Classification {
	tracer := otel.Tracer("github.com/noah-isme/suggestion-box-api/internal/service/classification")
	ctx, span := tracer.Start(ctx, "suggestion.classify")
	defer span.End()

	if s.classifier == nil {
		observability.Classifications().WithLabelValues("unconfigured").Inc()
		span.SetAttributes(attribute.String("classification.outcome", "unconfigured"))
		return fallbackClassification(reasonUnconfigured)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.classifier.Classify(callCtx, ai.PriorityInput{
		Title:    title,
		Content:  content,
		Category: string(category),
	})
	if err != nil {
		outcome, reason := "failed", reasonUnavailable
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome, reason = "timeout", reasonTimeout
		case errors.Is(err, ai.ErrInvalidPriority):
			outcome, reason = "invalid", reasonInvalid
		}
		observability.Classifications().WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.String("classification.outcome", outcome))
		s.logger.Warn().Err(err).Str("outcome", outcome).Msg("classification degraded, using default priority")
		return fallbackClassification(reason)
	}

	priority := models.SuggestionPriority(result.Priority)
	if !priority.IsValid() {
		observability.Classifications().WithLabelValues("invalid").Inc()
		s.logger.Warn().Str("priority", result.Priority).Msg("classifier returned unknown priority")
		return fallbackClassification(reasonInvalid)
	}

	reason := result.Reason
	if reason == "" {
		reason = "Classified automatically."
	}

	observability.Classifications().WithLabelValues("classified").Inc()
	span.SetAttributes(
		attribute.String("classification.outcome", "classified"),
		attribute.String("classification.priority", string(priority)),
	)

	return Classification{Priority: priority, Reason: reason, WasClassified: true}
}

func fallbackClassification(reason string) Classification {
	return Classification{Priority: models.PriorityMedium, Reason: reason, WasClassified: false}
}
