package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/suggestion-box-api/internal/database"
	"github.com/noah-isme/suggestion-box-api/internal/models"
)

func TestSuggestionRepositoryListFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-A-0001", Category: models.CategoryAcademic, Title: "Library hours", Content: "Open the library later", Priority: models.PriorityLow, IsAnonymous: true, CreatedAt: base})
	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-A-0002", Category: models.CategoryGeneral, Title: "Trash bins", Content: "More bins near the gym", Priority: models.PriorityUrgent, CreatedAt: base.Add(time.Hour)})
	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-A-0003", Category: models.CategoryGeneral, Title: "Water station", Content: "Refill station", Priority: models.PriorityHigh, CreatedAt: base.Add(2 * time.Hour)})
	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-A-0004", Category: models.CategoryGeneral, Title: "Archived idea", Content: "Old", Priority: models.PriorityUrgent, IsArchived: true, CreatedAt: base.Add(3 * time.Hour)})

	items, total, err := repo.List(context.Background(), SuggestionFilter{PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(3), total, "archived suggestions are excluded by default")
	require.Equal(t, "SUG-A-0003", items[0].TrackingCode, "expected newest first")

	items, total, err = repo.List(context.Background(), SuggestionFilter{Category: "general", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	items, total, err = repo.List(context.Background(), SuggestionFilter{Search: "GYM", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Trash bins", items[0].Title)

	items, _, err = repo.List(context.Background(), SuggestionFilter{Search: "a-0001", PageSize: 10})
	require.NoError(t, err)
	require.Len(t, items, 1, "search matches tracking codes")

	_, total, err = repo.List(context.Background(), SuggestionFilter{Identity: IdentityScopeAnonymous, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	_, total, err = repo.List(context.Background(), SuggestionFilter{Archived: ArchiveScopeArchived, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	_, total, err = repo.List(context.Background(), SuggestionFilter{Archived: ArchiveScopeAll, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	items, total, err = repo.List(context.Background(), SuggestionFilter{DateFrom: &from, DateTo: &to, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "SUG-A-0002", items[0].TrackingCode)

	items, _, err = repo.List(context.Background(), SuggestionFilter{Sort: SortPriorityHigh, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"SUG-A-0002", "SUG-A-0003", "SUG-A-0001"}, codes(items))

	items, _, err = repo.List(context.Background(), SuggestionFilter{Sort: SortPriorityLow, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"SUG-A-0001", "SUG-A-0003", "SUG-A-0002"}, codes(items))

	items, _, err = repo.List(context.Background(), SuggestionFilter{Sort: SortOldest, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"SUG-A-0001", "SUG-A-0002", "SUG-A-0003"}, codes(items))
}

func TestSuggestionRepositoryPaginationCoversResultSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		seedSuggestion(t, db, models.Suggestion{
			TrackingCode: fmt.Sprintf("SUG-P-%04d", i),
			Category:     models.CategoryGeneral,
			Title:        fmt.Sprintf("Idea %d", i),
			Content:      "content",
			Priority:     models.PriorityMedium,
			CreatedAt:    base.Add(time.Duration(i%3) * time.Minute),
		})
	}

	full, total, err := repo.List(context.Background(), SuggestionFilter{PageSize: 100})
	require.NoError(t, err)
	require.Equal(t, int64(7), total)

	var paged []string
	for page := 1; page <= 3; page++ {
		items, pageTotal, err := repo.List(context.Background(), SuggestionFilter{Page: page, PageSize: 3})
		require.NoError(t, err)
		require.Equal(t, int64(7), pageTotal)
		paged = append(paged, codes(items)...)
	}

	require.Equal(t, codes(full), paged)
}

func TestSuggestionRepositoryAppendStatusKeepsHistoryOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)
	created := seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-H-0001", Category: models.CategoryGeneral, Title: "History", Content: "x", Status: models.StatusSubmitted})

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sequence := []models.SuggestionStatus{models.StatusUnderReview, models.StatusForwarded, models.StatusSubmitted, models.StatusResolved}
	previous := models.StatusSubmitted
	for i, status := range sequence {
		updated, old, err := repo.AppendStatus(context.Background(), created.ID, models.SuggestionStatusHistory{
			Status:    status,
			Notes:     fmt.Sprintf("step %d", i),
			ChangedBy: "Student Council",
			ChangedAt: at.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.Equal(t, previous, old)
		require.Equal(t, status, updated.Status)
		require.Len(t, updated.StatusHistory, i+1)
		previous = status
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, stored.StatusHistory, len(sequence))
	for i, entry := range stored.StatusHistory {
		require.Equal(t, sequence[i], entry.Status)
		require.Equal(t, fmt.Sprintf("step %d", i), entry.Notes)
	}

	_, _, err = repo.AppendStatus(context.Background(), 9999, models.SuggestionStatusHistory{Status: models.StatusResolved, ChangedAt: at})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSuggestionRepositoryMarkReadOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)
	created := seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-R-0001", Category: models.CategoryGeneral, Title: "Read", Content: "x"})

	first := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	updated, changed, err := repo.MarkRead(context.Background(), created.ID, "Guidance", first)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, updated.IsRead)

	again, changed, err := repo.MarkRead(context.Background(), created.ID, "Council", first.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, "Guidance", again.ReadBy)
	require.NotNil(t, again.ReadAt)
	require.True(t, again.ReadAt.Equal(first))
}

func TestSuggestionRepositoryToggleArchive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)
	created := seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-T-0001", Category: models.CategoryGeneral, Title: "Archive", Content: "x"})
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	updated, wasArchived, err := repo.ToggleArchive(context.Background(), created.ID, "Council", at)
	require.NoError(t, err)
	require.False(t, wasArchived)
	require.True(t, updated.IsArchived)
	require.Equal(t, "Council", updated.ArchivedBy)

	updated, wasArchived, err = repo.ToggleArchive(context.Background(), created.ID, "Guidance", at.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, wasArchived)
	require.False(t, updated.IsArchived)
	require.Equal(t, "Guidance", updated.ArchivedBy)
}

func TestSuggestionRepositoryDeleteAndBulkDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)
	first := seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-D-0001", Category: models.CategoryGeneral, Title: "One", Content: "x"})
	second := seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-D-0002", Category: models.CategoryGeneral, Title: "Two", Content: "x"})
	third := seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-D-0003", Category: models.CategoryGeneral, Title: "Three", Content: "x"})

	_, _, err := repo.AppendStatus(context.Background(), first.ID, models.SuggestionStatusHistory{Status: models.StatusResolved, ChangedAt: time.Now().UTC()})
	require.NoError(t, err)

	summary, err := repo.Delete(context.Background(), third.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Equal(t, "SUG-D-0003", summary.TrackingCode)

	missing, err := repo.Delete(context.Background(), third.ID)
	require.NoError(t, err)
	require.Nil(t, missing)

	count, summaries, err := repo.BulkDelete(context.Background(), []uint{first.ID, second.ID, 4242})
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.Len(t, summaries, 2)

	count, _, err = repo.BulkDelete(context.Background(), []uint{first.ID, second.ID})
	require.NoError(t, err)
	require.Zero(t, count)

	var histories int64
	require.NoError(t, db.Model(&models.SuggestionStatusHistory{}).Count(&histories).Error)
	require.Zero(t, histories)
}

func TestSuggestionRepositoryCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-C-0001", Category: models.CategoryAcademic, Title: "a", Content: "x", Priority: models.PriorityHigh, Status: models.StatusSubmitted, IsAnonymous: true, CreatedAt: now.AddDate(0, 0, -1)})
	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-C-0002", Category: models.CategoryAcademic, Title: "b", Content: "x", Priority: models.PriorityLow, Status: models.StatusResolved, IsRead: true, CreatedAt: now.AddDate(0, 0, -20)})
	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-C-0003", Category: models.CategoryGeneral, Title: "c", Content: "x", Priority: models.PriorityHigh, Status: models.StatusSubmitted, IsArchived: true, CreatedAt: now})

	counts, err := repo.Counts(context.Background(), now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Equal(t, int64(2), counts.Total)
	require.Equal(t, int64(1), counts.Recent)
	require.Equal(t, int64(1), counts.Anonymous)
	require.Equal(t, int64(1), counts.Unread)
	require.Equal(t, int64(1), counts.Archived)
	require.Equal(t, int64(2), counts.ByCategory["academic"])
	require.Equal(t, int64(1), counts.ByStatus["resolved"])
	require.Equal(t, int64(1), counts.ByPriority["high"])
}

func TestSuggestionRepositorySearchTreatsWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSuggestionRepository(db)

	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-L-0001", Category: models.CategoryGeneral, Title: "Use 100% recycled paper", Content: "Printing office"})
	seedSuggestion(t, db, models.Suggestion{TrackingCode: "SUG-L-0002", Category: models.CategoryGeneral, Title: "New lockers", Content: "Hallway B"})

	items, total, err := repo.List(context.Background(), SuggestionFilter{Search: "%", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "SUG-L-0001", items[0].TrackingCode)

	_, total, err = repo.List(context.Background(), SuggestionFilter{Search: "100%", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	_, total, err = repo.List(context.Background(), SuggestionFilter{Search: "_", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(0), total)

	_, total, err = repo.List(context.Background(), SuggestionFilter{Search: `\`, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	require.Equal(t, `%50\% off%`, containsPattern("50% OFF"))
	require.Equal(t, `%a\_b%`, containsPattern("a_b"))
	require.Equal(t, `%c:\\temp%`, containsPattern(`C:\temp`))
}

func seedSuggestion(t *testing.T, db *gorm.DB, suggestion models.Suggestion) models.Suggestion {
	t.Helper()
	if suggestion.Status == "" {
		suggestion.Status = models.StatusSubmitted
	}
	if suggestion.Priority == "" {
		suggestion.Priority = models.PriorityMedium
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}
	suggestion.UpdatedAt = suggestion.CreatedAt
	require.NoError(t, db.Create(&suggestion).Error)
	return suggestion
}

func codes(items []models.Suggestion) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.TrackingCode)
	}
	return result
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}
