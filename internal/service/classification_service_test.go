package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/pkg/ai"
)

func TestClassificationServiceUsesClassifierResult(t *testing.T) {
	classifier := &stubClassifier{result: ai.PriorityResult{Priority: "urgent", Reason: "Broken railing on the stairs"}}
	svc := NewClassificationService(classifier, time.Second, testLogger())

	result := svc.Classify(context.Background(), "Broken railing", "The stair railing is loose", models.CategoryGeneral)

	require.True(t, result.WasClassified)
	require.Equal(t, models.PriorityUrgent, result.Priority)
	require.Equal(t, "Broken railing on the stairs", result.Reason)
	require.Equal(t, 1, classifier.calls)
}

func TestClassificationServiceFallbacks(t *testing.T) {
	cases := []struct {
		name       string
		classifier ai.Classifier
		timeout    time.Duration
	}{
		{name: "unconfigured", classifier: nil},
		{name: "transport error", classifier: &stubClassifier{err: errors.New("connection refused")}},
		{name: "invalid label", classifier: &stubClassifier{err: fmt.Errorf("%w: %q", ai.ErrInvalidPriority, "critical")}},
		{name: "label outside set", classifier: &stubClassifier{result: ai.PriorityResult{Priority: "whenever"}}},
		{name: "timeout", classifier: &stubClassifier{delay: time.Second}, timeout: 20 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewClassificationService(tc.classifier, tc.timeout, testLogger())

			result := svc.Classify(context.Background(), "Title", "Content", models.CategoryAcademic)

			require.False(t, result.WasClassified)
			require.Equal(t, models.PriorityMedium, result.Priority)
			require.NotEmpty(t, result.Reason)
		})
	}
}
