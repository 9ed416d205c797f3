package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/suggestion-box-api/internal/observability"
)

var (
	// ErrAttachmentUnconfigured indicates no image host is configured.
	ErrAttachmentUnconfigured = errors.New("image uploads are not configured")
	// ErrAttachmentTooLarge indicates the decoded image exceeded the configured limit.
	ErrAttachmentTooLarge = errors.New("image exceeds maximum allowed size")
	// ErrAttachmentNotImage indicates the payload is not an image.
	ErrAttachmentNotImage = errors.New("attachment is not an image")
	// ErrAttachmentEncoding indicates the payload is not valid base64.
	ErrAttachmentEncoding = errors.New("attachment is not valid base64")
)

// ImageUploader stores an image with an external host and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AttachmentResult is the discriminated outcome of an attachment upload.
type AttachmentResult struct {
	Success bool
	URL     string
	Error   string
}

// AttachmentService persists suggestion images. Failures are reported in the result, never returned.
type AttachmentService interface {
	Store(ctx context.Context, payload string) AttachmentResult
}

type attachmentService struct {
	uploader ImageUploader
	maxBytes int
	timeout  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAttachmentService constructs the attachment service. A nil uploader disables uploads.
func NewAttachmentService(uploader ImageUploader, maxSizeMB int, timeout time.Duration, logger zerolog.Logger) AttachmentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &attachmentService{
		uploader: uploader,
		maxBytes: maxSizeMB * 1024 * 1024,
		timeout:  timeout,
		logger:   logger.With().Str("component", "attachment_service").Logger(),
		now:      time.Now,
	}
}

func (s *attachmentService) Store(ctx context.Context, payload string) AttachmentResult {
	tracer := otel.Tracer("github.com/noah-isme/suggestion-box-api/internal/service/attachment")
	ctx, span := tracer.Start(ctx, "attachment.store")
	defer span.End()

	data, err := s.decode(payload)
	if err != nil {
		return s.failure(span, "rejected", err)
	}
	span.SetAttributes(attribute.Int("attachment.bytes", len(data)))

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return s.failure(span, "rejected", fmt.Errorf("%w: detected %s", ErrAttachmentNotImage, mtype.String()))
	}
	span.SetAttributes(attribute.String("attachment.mime", mtype.String()))

	if s.uploader == nil {
		return s.failure(span, "unconfigured", ErrAttachmentUnconfigured)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name := fmt.Sprintf("suggestion-%d%s", s.now().Unix(), mtype.Extension())
	start := time.Now()
	url, err := s.uploader.UploadImage(uploadCtx, name, bytes.NewReader(data))
	observability.AttachmentLatency().Observe(time.Since(start).Seconds())
	if err != nil {
		return s.failure(span, "failed", err)
	}

	observability.Attachments().WithLabelValues("stored").Inc()
	return AttachmentResult{Success: true, URL: url}
}

// decode accepts a data URL or a bare base64 string.
func (s *attachmentService) decode(payload string) ([]byte, error) {
	encoded := strings.TrimSpace(payload)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 || !strings.Contains(encoded[:comma], ";base64") {
			return nil, ErrAttachmentEncoding
		}
		encoded = encoded[comma+1:]
	}
	if encoded == "" {
		return nil, ErrAttachmentEncoding
	}

	if base64.StdEncoding.DecodedLen(len(encoded)) > s.maxBytes+3 {
		return nil, ErrAttachmentTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttachmentEncoding, err)
		}
	}

	if len(data) > s.maxBytes {
		return nil, ErrAttachmentTooLarge
	}

	return data, nil
}

func (s *attachmentService) failure(span trace.Span, outcome string, err error) AttachmentResult {
	observability.Attachments().WithLabelValues(outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	s.logger.Warn().Err(err).Str("outcome", outcome).Msg("attachment not stored")
	return AttachmentResult{Success: false, Error: err.Error()}
}
