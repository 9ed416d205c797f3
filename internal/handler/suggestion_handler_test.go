package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

func TestSuggestionHandlerCreateMatchesContract(t *testing.T) {
	stack := newTestStack(t)
	schema := compileSchema(t, "suggestion_created.schema.json")

	resp, env, raw := stack.do(t, http.MethodPost, "/api/suggestions", fiber.Map{
		"category":    "academic",
		"title":       "Extend library hours",
		"content":     "Keep the library open until 10pm during finals.",
		"isAnonymous": false,
		"submitter": fiber.Map{
			"name":      "Jamie Rivera",
			"email":     "jamie@example.com",
			"yearLevel": "3rd Year",
		},
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)
	validateSchema(t, schema, raw)

	created := decode[dto.SuggestionCreateResponse](t, env.Data)
	require.Equal(t, "medium", created.Priority)
	require.False(t, created.AIAnalyzed)
	require.True(t, strings.HasPrefix(created.TrackingCode, "SUG-"))
}

func TestSuggestionHandlerAnonymousTrackOmitsSubmitter(t *testing.T) {
	stack := newTestStack(t)
	schema := compileSchema(t, "public_suggestion.schema.json")

	_, env, _ := stack.do(t, http.MethodPost, "/api/suggestions", fiber.Map{
		"category":    "general",
		"title":       "Quiet study room",
		"content":     "Convert the old AV room into a quiet study space.",
		"isAnonymous": true,
		"submitter":   fiber.Map{"name": "Hidden Person", "email": "hidden@example.com"},
	}, "")
	created := decode[dto.SuggestionCreateResponse](t, env.Data)

	resp, env, raw := stack.do(t, http.MethodGet, "/api/suggestions/track/"+created.TrackingCode, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateSchema(t, schema, raw)

	payload := decode[map[string]interface{}](t, env.Data)
	_, hasSubmitter := payload["submitter"]
	require.False(t, hasSubmitter)
	require.Equal(t, "Quiet study room", payload["title"])
	require.NotContains(t, string(raw), "hidden@example.com")
}

func TestSuggestionHandlerValidationDetails(t *testing.T) {
	stack := newTestStack(t)

	resp, env, _ := stack.do(t, http.MethodPost, "/api/suggestions", fiber.Map{
		"category": "sports",
		"title":    "",
		"content":  "Something",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, env.Success)

	details := decode[[]utils.FieldError](t, env.Details)
	fields := make([]string, 0, len(details))
	for _, detail := range details {
		fields = append(fields, detail.Field)
	}
	require.Contains(t, fields, "category")
	require.Contains(t, fields, "title")
}

func TestSuggestionHandlerRejectsMalformedBody(t *testing.T) {
	stack := newTestStack(t)

	resp, env, _ := stack.do(t, http.MethodPost, "/api/suggestions", "not an object", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid payload", env.Message)
}

func TestSuggestionHandlerTrackUnknownCode(t *testing.T) {
	stack := newTestStack(t)

	resp, env, _ := stack.do(t, http.MethodGet, "/api/suggestions/track/SUG-NOPE-ZZZZ", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "suggestion not found", env.Message)
}
