package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Alessandro1809/blog-api/models"
)

func postViews(t *testing.T, db *gorm.DB, postID string) int64 {
	t.Helper()
	var post models.Post
	require.NoError(t, db.Where("id = ?", postID).First(&post).Error)
	return post.Views
}

// ageLedger pushes every ledger row for a post into the past, including its
// dedup bucket, as if the cooldown window had elapsed.
func ageLedger(t *testing.T, db *gorm.DB, postID string, age, cooldown time.Duration) {
	t.Helper()
	aged := time.Now().Add(-age)
	require.NoError(t, db.Model(&models.PostView{}).Where("post_id = ?", postID).
		Updates(map[string]any{
			"viewed_at": aged,
			"bucket":    aged.Unix() / int64(cooldown/time.Second),
		}).Error)
}

func TestTrackView_CooldownIdempotent(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	tracker := NewViewTracker(db, DefaultViewCooldown)

	post := createTestPost(t, posts, CreatePostInput{Slug: "b", Status: models.StatusPublished})

	// Three views from the same client within the window, differing user
	// agents, count exactly once.
	counted, err := tracker.TrackView(post.ID, "1.2.3.4", "Firefox")
	require.NoError(t, err)
	assert.True(t, counted)

	for _, ua := range []string{"Chrome", "Safari"} {
		counted, err = tracker.TrackView(post.ID, "1.2.3.4", ua)
		require.NoError(t, err)
		assert.False(t, counted)
	}

	assert.EqualValues(t, 1, postViews(t, db, post.ID))

	var ledger int64
	db.Model(&models.PostView{}).Where("post_id = ?", post.ID).Count(&ledger)
	assert.EqualValues(t, 1, ledger, "repeat views leave no ledger rows")
}

func TestTrackView_CountsAgainAfterCooldown(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	tracker := NewViewTracker(db, DefaultViewCooldown)

	post := createTestPost(t, posts, CreatePostInput{Slug: "c", Status: models.StatusPublished})

	counted, err := tracker.TrackView(post.ID, "1.2.3.4", "ua")
	require.NoError(t, err)
	require.True(t, counted)

	ageLedger(t, db, post.ID, time.Hour, DefaultViewCooldown)

	counted, err = tracker.TrackView(post.ID, "1.2.3.4", "ua")
	require.NoError(t, err)
	assert.True(t, counted)
	assert.EqualValues(t, 2, postViews(t, db, post.ID))
}

func TestTrackView_DistinctClientsEachCount(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	tracker := NewViewTracker(db, DefaultViewCooldown)

	post := createTestPost(t, posts, CreatePostInput{Slug: "d", Status: models.StatusPublished})

	for _, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		counted, err := tracker.TrackView(post.ID, ip, "ua")
		require.NoError(t, err)
		assert.True(t, counted)
	}
	assert.EqualValues(t, 3, postViews(t, db, post.ID))
}

func TestTrackView_DuplicateInsertLosesRace(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	// Long cooldown keeps both inserts inside one dedup bucket.
	cooldown := 365 * 24 * time.Hour
	tracker := NewViewTracker(db, cooldown)

	post := createTestPost(t, posts, CreatePostInput{Slug: "e", Status: models.StatusPublished})

	counted, err := tracker.TrackView(post.ID, "9.9.9.9", "ua")
	require.NoError(t, err)
	require.True(t, counted)

	// Simulate the other interleaving: the pre-check misses the record but
	// the unique bucket index rejects the second insert.
	require.NoError(t, db.Model(&models.PostView{}).Where("post_id = ?", post.ID).
		UpdateColumn("viewed_at", time.Now().Add(-2*cooldown)).Error)

	counted, err = tracker.TrackView(post.ID, "9.9.9.9", "ua")
	require.NoError(t, err)
	assert.False(t, counted, "conflicting insert must not double count")
	assert.EqualValues(t, 1, postViews(t, db, post.ID))
}

func TestCleanupOldViews(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	tracker := NewViewTracker(db, DefaultViewCooldown)

	oldPost := createTestPost(t, posts, CreatePostInput{Slug: "old", Status: models.StatusPublished})
	freshPost := createTestPost(t, posts, CreatePostInput{Slug: "fresh", Status: models.StatusPublished})

	counted, err := tracker.TrackView(oldPost.ID, "1.2.3.4", "ua")
	require.NoError(t, err)
	require.True(t, counted)
	counted, err = tracker.TrackView(freshPost.ID, "1.2.3.4", "ua")
	require.NoError(t, err)
	require.True(t, counted)

	ageLedger(t, db, oldPost.ID, 91*24*time.Hour, DefaultViewCooldown)

	removed, err := tracker.CleanupOldViews(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var remaining int64
	db.Model(&models.PostView{}).Count(&remaining)
	assert.EqualValues(t, 1, remaining)

	// Retention never touches the counters.
	assert.EqualValues(t, 1, postViews(t, db, oldPost.ID))
}
