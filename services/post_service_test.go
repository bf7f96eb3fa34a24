package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Alessandro1809/blog-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Post{}, &models.PostView{}))
	return db
}

func createTestPost(t *testing.T, svc *PostService, input CreatePostInput) *models.Post {
	t.Helper()
	if input.Title == "" {
		input.Title = "Test Post"
	}
	if input.AuthorID == "" {
		input.AuthorID = "author-1"
	}
	post, err := svc.Create(&input)
	require.NoError(t, err)
	return post
}

// backdate rewrites creation time without touching hooks, to exercise
// ordering and date filters.
func backdate(t *testing.T, db *gorm.DB, id string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("created_at", at).Error)
}

func TestCreatePost_DuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	createTestPost(t, svc, CreatePostInput{Slug: "a", Status: models.StatusDraft})

	_, err := svc.Create(&CreatePostInput{Slug: "a", Title: "Other", AuthorID: "author-2"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.EqualValues(t, 1, count, "failed create must leave the store unchanged")
}

func TestCreatePost_TranslatesCategoryLabel(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	post := createTestPost(t, svc, CreatePostInput{Slug: "guia", Categorie: "Guías legales"})
	assert.Equal(t, "GUIAS_LEGALES", post.Categorie)

	loaded, err := svc.GetBySlug("guia")
	require.NoError(t, err)
	assert.Equal(t, "GUIAS_LEGALES", loaded.Categorie)
}

func TestCreatePost_UnknownCategory(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	_, err := svc.Create(&CreatePostInput{Slug: "x", Title: "T", AuthorID: "a", Categorie: "Cocina"})
	assert.True(t, IsValidation(err))
}

func TestCreatePost_Defaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	post := createTestPost(t, svc, CreatePostInput{Slug: "defaults"})
	assert.Equal(t, models.StatusDraft, post.Status)
	assert.EqualValues(t, 0, post.Views)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, []string{}, post.Tags)

	seeded := createTestPost(t, svc, CreatePostInput{Slug: "seeded", Views: 150})
	assert.EqualValues(t, 150, seeded.Views)
}

func TestGetByID_DecodesBothContentEncodings(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	markdown := createTestPost(t, svc, CreatePostInput{
		Slug:    "md",
		Content: "---\ntitle: Hello\n---\n\nBody text.",
	})
	structured := createTestPost(t, svc, CreatePostInput{
		Slug:    "doc",
		Content: map[string]any{"type": "doc", "content": []any{}},
	})

	loaded, err := svc.GetByID(markdown.ID)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Hello\n---\n\nBody text.", loaded.Content)

	loaded, err = svc.GetByID(structured.ID)
	require.NoError(t, err)
	doc, ok := loaded.Content.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "doc", doc["type"])
}

func TestGetByID_MalformedContentDegradesToNil(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	post := createTestPost(t, svc, CreatePostInput{Slug: "legacy"})
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("content", "{not valid json").Error)

	loaded, err := svc.GetByID(post.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Content, "malformed legacy content must not fail the read")
}

func TestUpdatePost_PartialLeavesAbsentFieldsUntouched(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	post := createTestPost(t, svc, CreatePostInput{
		Slug:    "partial",
		Excerpt: "original excerpt",
		Tags:    []string{"uno", "dos"},
	})

	title := "New Title"
	updated, err := svc.Update(post.ID, &UpdatePostInput{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "original excerpt", updated.Excerpt)
	assert.Equal(t, []string{"uno", "dos"}, updated.Tags)
	assert.Equal(t, "partial", updated.Slug)
	assert.False(t, updated.UpdatedAt.Before(post.UpdatedAt))
}

func TestUpdatePost_SlugConflict(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	createTestPost(t, svc, CreatePostInput{Slug: "existing-other-slug"})
	post := createTestPost(t, svc, CreatePostInput{Slug: "mine", Title: "Mine"})

	slug := "existing-other-slug"
	_, err := svc.Update(post.ID, &UpdatePostInput{Slug: &slug})
	assert.ErrorIs(t, err, ErrSlugTaken)

	loaded, err := svc.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", loaded.Slug, "original post unchanged after conflict")
}

func TestUpdatePost_UnknownID(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	title := "T"
	_, err := svc.Update("missing", &UpdatePostInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePost_CascadesViewLedger(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	tracker := NewViewTracker(db, DefaultViewCooldown)

	post := createTestPost(t, svc, CreatePostInput{Slug: "doomed", Status: models.StatusPublished})
	counted, err := tracker.TrackView(post.ID, "1.2.3.4", "ua")
	require.NoError(t, err)
	require.True(t, counted)

	require.NoError(t, svc.Delete(post.ID))

	var views int64
	db.Model(&models.PostView{}).Where("post_id = ?", post.ID).Count(&views)
	assert.EqualValues(t, 0, views)

	assert.ErrorIs(t, svc.Delete(post.ID), ErrNotFound)
}

func TestList_FiltersAndPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	featured := true
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		post := createTestPost(t, svc, CreatePostInput{
			Slug:      "pub-" + string(rune('a'+i)),
			Status:    models.StatusPublished,
			Categorie: "NOTICIAS",
			Featured:  i%2 == 0,
		})
		backdate(t, db, post.ID, base.Add(time.Duration(i)*time.Hour))
	}
	draft := createTestPost(t, svc, CreatePostInput{Slug: "draft-a"})
	backdate(t, db, draft.ID, base.Add(-time.Hour))

	// Status filter: total matches predicate without pagination.
	posts, total, err := svc.List(PostFilters{Status: models.StatusPublished}, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, posts, 2)
	// Newest first.
	assert.True(t, posts[0].CreatedAt.After(posts[1].CreatedAt))

	// Offset beyond match count: empty page, correct total.
	posts, total, err = svc.List(PostFilters{Status: models.StatusPublished}, 10, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Empty(t, posts)

	// Featured + date AND-combined.
	since := base.Add(90 * time.Minute)
	posts, total, err = svc.List(PostFilters{Featured: &featured, Date: &since}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range posts {
		assert.True(t, p.Featured)
		assert.False(t, p.CreatedAt.Before(since))
	}

	// No matches at all.
	posts, total, err = svc.List(PostFilters{Categorie: "OPINION"}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, posts)
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	createTestPost(t, svc, CreatePostInput{Slug: "s1", Status: models.StatusPublished, Categorie: "NOTICIAS", Views: 10})
	createTestPost(t, svc, CreatePostInput{Slug: "s2", Status: models.StatusPublished, Categorie: "NOTICIAS", Views: 5})
	createTestPost(t, svc, CreatePostInput{Slug: "s3", Status: models.StatusDraft, Views: 1})

	stats, err := svc.Stats()
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Published)
	assert.EqualValues(t, 1, stats.Drafts)
	assert.EqualValues(t, 16, stats.TotalViews)

	byCategory := map[string]int64{}
	for _, g := range stats.ByCategory {
		byCategory[g.Category] = g.Count
	}
	assert.EqualValues(t, 2, byCategory["NOTICIAS"])
	assert.EqualValues(t, 1, byCategory[""], "uncategorized posts form their own group")
}

func TestStats_EmptyTable(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.Total)
	assert.EqualValues(t, 0, stats.TotalViews)
}

func TestValidateOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	post := createTestPost(t, svc, CreatePostInput{Slug: "owned", AuthorID: "author-1"})

	_, err := svc.ValidateOwnership("missing", "author-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ValidateOwnership(post.ID, "author-2")
	assert.ErrorIs(t, err, ErrForbidden)

	snapshot, err := svc.ValidateOwnership(post.ID, "author-1")
	require.NoError(t, err)
	assert.Equal(t, post.ID, snapshot.ID)
}

func TestSlugExists(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)

	createTestPost(t, svc, CreatePostInput{Slug: "taken"})

	exists, err := svc.SlugExists("taken")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.SlugExists("free")
	require.NoError(t, err)
	assert.False(t, exists)
}
