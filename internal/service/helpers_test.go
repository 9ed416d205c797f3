package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/suggestion-box-api/internal/config"
	"github.com/noah-isme/suggestion-box-api/internal/database"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

var testStaff = []config.StaffAccount{
	{Password: "council-secret", Role: "student_council", Label: "Student Council", Color: "#2563eb"},
	{Password: "guidance-secret", Role: "guidance_office", Label: "Guidance Office", Color: "#16a34a"},
	{Password: "root-secret", Role: "super_admin", Label: "Developer", Color: "#111827"},
}

var councilIdentity = models.StaffIdentity{Role: models.RoleStudentCouncil, Label: "Student Council", Color: "#2563eb"}

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type stubClassifier struct {
	result ai.PriorityResult
	err    error
	delay  time.Duration
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, input ai.PriorityInput) (ai.PriorityResult, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ai.PriorityResult{}, ctx.Err()
		}
	}
	return s.result, s.err
}

type stubUploader struct {
	url      string
	err      error
	received []byte
	name     string
}

func (s *stubUploader) UploadImage(ctx context.Context, name string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.received = data
	s.name = name
	return s.url, s.err
}
