package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/suggestion-box-api/internal/config"
	"github.com/noah-isme/suggestion-box-api/internal/database"
	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/handler"
	"github.com/noah-isme/suggestion-box-api/internal/middleware"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/repository"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

const (
	councilSecret = "council-secret"
	rootSecret    = "root-secret"
)

var handlerStaff = []config.StaffAccount{
	{Password: councilSecret, Role: "student_council", Label: "Student Council", Color: "#2563eb"},
	{Password: rootSecret, Role: "super_admin", Label: "Developer", Color: "#111827"},
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

type activityItem struct {
	AdminRole              string                 `json:"adminRole"`
	AdminLabel             string                 `json:"adminLabel"`
	Action                 string                 `json:"action"`
	SuggestionID           *uint                  `json:"suggestionId"`
	SuggestionTrackingCode string                 `json:"suggestionTrackingCode"`
	Details                map[string]interface{} `json:"details"`
}

type activityPage struct {
	Items      []activityItem     `json:"items"`
	Pagination dto.PaginationMeta `json:"pagination"`
}

type testStack struct {
	app         *fiber.App
	db          *gorm.DB
	suggestions repository.SuggestionRepository
	activity    repository.ActivityLogRepository
	presence    service.PresenceTracker
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := utils.NewValidator()

	suggestionRepo := repository.NewSuggestionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	directory := service.NewStaffDirectory(handlerStaff)
	presence := service.NewPresenceTracker(time.Minute)
	activity := service.NewActivityService(activityRepo, directory, logger)

	suggestionService := service.NewSuggestionService(
		suggestionRepo,
		service.NewClassificationService(nil, time.Second, logger),
		service.NewAttachmentService(nil, 1, time.Second, logger),
		validate,
		nil,
		"SUG",
		logger,
	)
	adminService := service.NewAdminSuggestionService(suggestionRepo, validate, nil, time.Minute, logger)

	app := fiber.New()
	staffAuth := middleware.StaffAuth(directory)

	handler.NewSuggestionHandler(suggestionService, logger, false).Register(app.Group("/api/suggestions"))

	admin := app.Group("/api/admin")
	handler.NewAdminSessionHandler(directory, presence, activity, validate, logger).Register(admin, staffAuth, nil)

	adminSuggestions := handler.NewAdminSuggestionHandler(adminService, activity, logger, false)
	admin.Get("/stats", staffAuth, adminSuggestions.Stats)
	adminSuggestions.Register(admin.Group("/suggestions", staffAuth))

	handler.NewAdminActivityHandler(activity, logger, false).Register(admin.Group("/activity-logs", staffAuth), middleware.RequireRole("super_admin"))

	return &testStack{
		app:         app,
		db:          db,
		suggestions: suggestionRepo,
		activity:    activityRepo,
		presence:    presence,
	}
}

func (s *testStack) do(t *testing.T, method, path string, body interface{}, credential string) (*http.Response, envelope, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set(middleware.StaffCredentialHeader, credential)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp, env, raw
}

func (s *testStack) seed(t *testing.T, title string, anonymous bool) models.Suggestion {
	t.Helper()
	suggestion := models.Suggestion{
		TrackingCode:     "SUG-" + uuid.NewString()[:8],
		Category:         models.CategoryGeneral,
		Title:            title,
		Content:          title + " content",
		IsAnonymous:      anonymous,
		Status:           models.StatusSubmitted,
		Priority:         models.PriorityMedium,
		AIPriorityReason: "seeded",
	}
	if !anonymous {
		suggestion.Submitter = models.SubmitterInfo{Name: "Jamie Rivera", Email: "jamie@example.com", YearLevel: "2nd Year"}
	}
	require.NoError(t, s.suggestions.Create(t.Context(), &suggestion))
	return suggestion
}

func (s *testStack) activityLogs(t *testing.T, query string) activityPage {
	t.Helper()
	resp, env, _ := s.do(t, http.MethodGet, "/api/admin/activity-logs"+query, nil, rootSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[activityPage](t, env.Data)
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func validateSchema(t *testing.T, schema *jsonschema.Schema, raw []byte) {
	t.Helper()
	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(raw, &value))
	return value
}
