package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/suggestion-box-api/internal/config"
	"github.com/noah-isme/suggestion-box-api/internal/database"
	"github.com/noah-isme/suggestion-box-api/internal/handler"
	"github.com/noah-isme/suggestion-box-api/internal/middleware"
	"github.com/noah-isme/suggestion-box-api/internal/repository"
	"github.com/noah-isme/suggestion-box-api/internal/router"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

const staffSecret = "council-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := utils.NewValidator()

	suggestionRepo := repository.NewSuggestionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	directory := service.NewStaffDirectory(cfg.StaffAccounts)
	activity := service.NewActivityService(activityRepo, directory, logger)

	// No classifier and no uploader: both collaborators are unavailable.
	suggestionService := service.NewSuggestionService(
		suggestionRepo,
		service.NewClassificationService(nil, time.Second, logger),
		service.NewAttachmentService(nil, cfg.MaxImageMB, time.Second, logger),
		validate,
		nil,
		cfg.TrackingPrefix,
		logger,
	)
	adminService := service.NewAdminSuggestionService(suggestionRepo, validate, nil, time.Minute, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger, DisableAccessLog: true})
	router.Register(app, cfg, router.Dependencies{
		SuggestionHandler:      handler.NewSuggestionHandler(suggestionService, logger, false),
		AdminSessionHandler:    handler.NewAdminSessionHandler(directory, service.NewPresenceTracker(time.Minute), activity, validate, logger),
		AdminSuggestionHandler: handler.NewAdminSuggestionHandler(adminService, activity, logger, false),
		AdminActivityHandler:   handler.NewAdminActivityHandler(activity, logger, false),
		StaffResolver:          directory,
	})
	return app
}

func testConfig() config.Config {
	return config.Config{
		AppName:         "Suggestion Box API",
		AppEnv:          "test",
		TrackingPrefix:  "SUG",
		MaxImageMB:      1,
		SubmitRateLimit: 100,
		VerifyRateLimit: 2,
		PrivilegedRole:  "super_admin",
		StaffAccounts: []config.StaffAccount{
			{Password: staffSecret, Role: "student_council", Label: "Student Council", Color: "#2563eb"},
		},
	}
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, credential string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set(middleware.StaffCredentialHeader, credential)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestAnonymousSubmissionIsTrackable(t *testing.T) {
	app := newApp(t, testConfig())

	status, env := call(t, app, http.MethodPost, "/api/suggestions", fiber.Map{
		"category":    "general",
		"title":       "Add more trash bins",
		"content":     "There should be more trash bins near the gym entrance for cleanliness.",
		"isAnonymous": true,
	}, "")
	require.Equal(t, http.StatusCreated, status)

	var created struct {
		TrackingCode string `json:"trackingCode"`
		Status       string `json:"status"`
		Priority     string `json:"priority"`
		AIAnalyzed   bool   `json:"aiAnalyzed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "submitted", created.Status)
	require.Equal(t, "medium", created.Priority)
	require.False(t, created.AIAnalyzed)
	require.Regexp(t, `^[A-Z]+-[A-Z0-9]+-[A-Z0-9]{4}$`, created.TrackingCode)

	status, env = call(t, app, http.MethodGet, "/api/suggestions/track/"+created.TrackingCode, nil, "")
	require.Equal(t, http.StatusOK, status)

	var tracked map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &tracked))
	require.Equal(t, "Add more trash bins", tracked["title"])
	require.Equal(t, "There should be more trash bins near the gym entrance for cleanliness.", tracked["content"])
	require.Equal(t, "submitted", tracked["status"])
	require.NotContains(t, tracked, "submitter")
}

func TestStaffResolvesSuggestionAndLedgerRecordsIt(t *testing.T) {
	app := newApp(t, testConfig())

	_, env := call(t, app, http.MethodPost, "/api/suggestions", fiber.Map{
		"category": "administrative",
		"title":    "Online enrollment",
		"content":  "Allow enrollment forms to be submitted online.",
	}, "")
	var created struct {
		TrackingCode string `json:"trackingCode"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, env := call(t, app, http.MethodGet, "/api/admin/suggestions?search="+created.TrackingCode, nil, staffSecret)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Items []struct {
			ID            uint              `json:"id"`
			StatusHistory []json.RawMessage `json:"statusHistory"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	id := list.Items[0].ID
	before := len(list.Items[0].StatusHistory)

	status, env = call(t, app, http.MethodPut, fmt.Sprintf("/api/admin/suggestions/%d/status", id), fiber.Map{
		"status": "resolved",
		"notes":  "done",
	}, staffSecret)
	require.Equal(t, http.StatusOK, status)

	var updated struct {
		Status        string `json:"status"`
		StatusHistory []struct {
			Status string `json:"status"`
			Notes  string `json:"notes"`
		} `json:"statusHistory"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.Equal(t, "resolved", updated.Status)
	require.Len(t, updated.StatusHistory, before+1)
	require.Equal(t, "done", updated.StatusHistory[len(updated.StatusHistory)-1].Notes)

	status, env = call(t, app, http.MethodGet, "/api/admin/activity-logs?action=update_status", nil, staffSecret)
	require.Equal(t, http.StatusOK, status)
	var logs struct {
		Items []struct {
			SuggestionTrackingCode string `json:"suggestionTrackingCode"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.NotEmpty(t, logs.Items)
	require.Equal(t, created.TrackingCode, logs.Items[0].SuggestionTrackingCode)
}

func TestVerifyIsRateLimited(t *testing.T) {
	app := newApp(t, testConfig())

	for i := 0; i < 2; i++ {
		status, _ := call(t, app, http.MethodPost, "/api/admin/verify", fiber.Map{"password": "guess"}, "")
		require.Equal(t, http.StatusUnauthorized, status)
	}

	status, env := call(t, app, http.MethodPost, "/api/admin/verify", fiber.Map{"password": staffSecret}, "")
	require.Equal(t, http.StatusTooManyRequests, status)
	require.False(t, env.Success)
}

func TestHealthAndAuthBoundaries(t *testing.T) {
	app := newApp(t, testConfig())

	status, env := call(t, app, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)

	status, _ = call(t, app, http.MethodGet, "/api/admin/stats", nil, "")
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodGet, "/api/admin/activity-logs/deprecated-count", nil, staffSecret)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/admin/stats", nil, staffSecret)
	require.Equal(t, http.StatusOK, status)
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	app := newApp(t, testConfig())

	status, _ := call(t, app, http.MethodGet, "/api/admin/stats", nil, staffSecret)
	require.Equal(t, http.StatusOK, status)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "suggestion_box_http_requests_total")
}
