package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alessandro1809/blog-api/models"
)

func TestSearch_MatchesTagOnly(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	search := NewSearchService(db)

	createTestPost(t, posts, CreatePostInput{
		Slug:    "amparo-guide",
		Title:   "Procedural Guide",
		Excerpt: "Defensa constitucional paso a paso",
		Tags:    []string{"amparo", "derechos humanos"},
		Status:  models.StatusPublished,
	})
	createTestPost(t, posts, CreatePostInput{
		Slug:   "unrelated",
		Title:  "Something Else",
		Status: models.StatusPublished,
	})

	found, total, err := search.Search("amparo", PostFilters{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "amparo-guide", found[0].Slug)
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	search := NewSearchService(db)

	createTestPost(t, posts, CreatePostInput{
		Slug:  "constitucional",
		Title: "Derecho Constitucional Moderno",
	})

	for _, term := range []string{"DERECHO", "constitucional", "Moder"} {
		_, total, err := search.Search(term, PostFilters{}, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total, "term %q", term)
	}
}

func TestSearch_MatchesContentDocument(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	search := NewSearchService(db)

	createTestPost(t, posts, CreatePostInput{
		Slug:    "doc-body",
		Title:   "Untitled",
		Content: map[string]any{"type": "doc", "text": "la jurisdicción federal"},
	})

	_, total, err := search.Search("jurisdicción", PostFilters{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSearch_MatchesCategoryLabel(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	search := NewSearchService(db)

	createTestPost(t, posts, CreatePostInput{
		Slug:      "labeled",
		Title:     "Untitled",
		Categorie: "GUIAS_LEGALES",
	})

	// Rows store the code; clients search by the display label.
	_, total, err := search.Search("guías legales", PostFilters{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSearch_CombinesWithFilters(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	search := NewSearchService(db)

	createTestPost(t, posts, CreatePostInput{
		Slug:   "pub-match",
		Title:  "Amparo directo",
		Status: models.StatusPublished,
	})
	createTestPost(t, posts, CreatePostInput{
		Slug:   "draft-match",
		Title:  "Amparo indirecto",
		Status: models.StatusDraft,
	})

	found, total, err := search.Search("amparo", PostFilters{Status: models.StatusPublished}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "pub-match", found[0].Slug)
}

func TestSearch_NoMatches(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(db)
	search := NewSearchService(db)

	createTestPost(t, posts, CreatePostInput{Slug: "any", Title: "Anything"})

	found, total, err := search.Search("zzz-no-such-term", PostFilters{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, found)
}
