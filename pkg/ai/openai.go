package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	classifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "suggestion_box",
		Subsystem: "ai",
		Name:      "classification_duration_seconds",
		Help:      "Duration of AI priority classification requests",
	}, []string{"model"})

	classifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suggestion_box",
		Subsystem: "ai",
		Name:      "classification_failures_total",
		Help:      "Number of AI priority classification failures",
	}, []string{"model"})
)

// ErrInvalidPriority is returned when the model answers with a label outside the fixed set.
var ErrInvalidPriority = errors.New("model returned an unknown priority")

// OpenAIConfig defines configuration options for the OpenAI classifier.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIClassifier implements Classifier against the OpenAI chat completion API.
type OpenAIClassifier struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClassifier builds a classifier using the provided configuration.
func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 200
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}

	tracer := otel.Tracer("github.com/noah-isme/suggestion-box-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIClassifier{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger.With().Str("component", "openai_classifier").Logger(),
	}, nil
}

// Classify asks the model for a priority label and parses its answer.
func (c *OpenAIClassifier) Classify(parent context.Context, input PriorityInput) (PriorityResult, error) {
	ctx, span := c.tracer.Start(parent, "openai.classify", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.String("category", input.Category),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: classifierSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	classifyDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return PriorityResult{}, c.fail(span, fmt.Errorf("openai classify: %w", err))
	}

	if len(resp.Choices) == 0 {
		return PriorityResult{}, c.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	result, err := ParsePriorityResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return PriorityResult{}, c.fail(span, err)
	}

	span.SetAttributes(attribute.String("priority", result.Priority))
	c.logger.Debug().
		Str("priority", result.Priority).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("suggestion classified")

	return result, nil
}

func (c *OpenAIClassifier) fail(span trace.Span, err error) error {
	classifyFailures.WithLabelValues(c.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func classifierSystemPrompt() string {
	return "You triage suggestions submitted by students to their school. " +
		"Assign exactly one priority: " +
		"urgent for safety, harassment, health or security concerns; " +
		"high for issues with broad impact or that are time-sensitive; " +
		"medium for general improvements; " +
		"low for cosmetic or nice-to-have requests. " +
		`Respond with a JSON object {"priority": "...", "reason": "..."} where reason is one short sentence.`
}

func buildUserPrompt(input PriorityInput) string {
	builder := strings.Builder{}
	builder.WriteString("## Category\n")
	builder.WriteString(input.Category)
	builder.WriteString("\n\n## Title\n")
	builder.WriteString(input.Title)
	builder.WriteString("\n\n## Content\n")
	builder.WriteString(input.Content)
	builder.WriteString("\n\nReturn JSON.")
	return builder.String()
}

// ParsePriorityResponse extracts the priority payload from a model answer. Markdown
// code fences around the JSON are tolerated; the priority is matched case-insensitively.
func ParsePriorityResponse(content string) (PriorityResult, error) {
	cleaned := stripWrapping(content)

	var data PriorityResult
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return PriorityResult{}, fmt.Errorf("parse classification json: %w", err)
	}

	priority := strings.ToLower(strings.TrimSpace(data.Priority))
	valid := false
	for _, candidate := range Priorities {
		if priority == candidate {
			valid = true
			break
		}
	}
	if !valid {
		return PriorityResult{}, fmt.Errorf("%w: %q", ErrInvalidPriority, data.Priority)
	}

	return PriorityResult{
		Priority: priority,
		Reason:   strings.TrimSpace(data.Reason),
	}, nil
}

// stripWrapping removes code fences and any chatter around the JSON object
// by keeping the span from the first '{' to the last '}'.
func stripWrapping(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start < 0 || end < start {
		return trimmed
	}
	return trimmed[start : end+1]
}
