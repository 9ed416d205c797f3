package ai

import "context"

// PriorityInput carries the suggestion text submitted for triage.
type PriorityInput struct {
	Title    string
	Content  string
	Category string
}

// PriorityResult is the label and rationale proposed by the model.
type PriorityResult struct {
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// Classifier proposes a priority level for a suggestion.
type Classifier interface {
	Classify(ctx context.Context, input PriorityInput) (PriorityResult, error)
}

// Priorities accepted from the model, lowest first.
var Priorities = []string{"low", "medium", "high", "urgent"}
