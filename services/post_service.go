package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Alessandro1809/blog-api/models"
)

// PostFilters are the AND-combined listing filters. Zero values mean the
// dimension is not filtered; Date is an inclusive lower bound on creation
// time at second granularity.
type PostFilters struct {
	Status    string
	Categorie string
	Date      *time.Time
	Featured  *bool
}

// CreatePostInput carries a full post draft.
type CreatePostInput struct {
	Slug          string
	Title         string
	Excerpt       string
	Content       any
	Categorie     string
	Tags          []string
	Status        string
	Featured      bool
	FeaturedImage string
	AuthorID      string
	Views         int64
}

// UpdatePostInput carries a partial update; nil pointers mean the field is
// absent and left untouched. Content presence is tracked separately because
// an explicit null is a meaningful value for an opaque document.
type UpdatePostInput struct {
	Slug          *string
	Title         *string
	Excerpt       *string
	Content       any
	ContentSet    bool
	Categorie     *string
	Tags          []string
	TagsSet       bool
	Status        *string
	Featured      *bool
	FeaturedImage *string
}

// PostStats is the whole-table aggregation snapshot.
type PostStats struct {
	Total      int64           `json:"total"`
	Published  int64           `json:"published"`
	Drafts     int64           `json:"drafts"`
	TotalViews int64           `json:"totalViews"`
	ByCategory []CategoryCount `json:"byCategory"`
}

// CategoryCount is one byCategory group; Category is empty for
// uncategorized posts.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// PostService owns durable post CRUD, plain listing, aggregation and the
// ownership guard.
type PostService struct {
	db *gorm.DB
}

// NewPostService creates a new PostService instance.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// Create inserts a new post. The slug pre-check gives the friendly conflict
// error; the unique index on slug stays authoritative, so a lost race still
// surfaces as ErrSlugTaken via the translated duplicate-key error.
func (s *PostService) Create(input *CreatePostInput) (*models.Post, error) {
	status := input.Status
	if status == "" {
		status = models.StatusDraft
	}
	if status != models.StatusDraft && status != models.StatusPublished {
		return nil, NewValidationError("status", "must be DRAFT or PUBLISHED")
	}

	categorie := input.Categorie
	if categorie != "" {
		categorie = models.NormalizeCategory(categorie)
		if !models.ValidCategory(categorie) {
			return nil, NewValidationError("categorie", "unknown category")
		}
	}

	exists, err := s.SlugExists(input.Slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSlugTaken
	}

	post := models.Post{
		Slug:          input.Slug,
		Title:         input.Title,
		Excerpt:       input.Excerpt,
		Content:       input.Content,
		RawContent:    models.EncodeContent(input.Content),
		Categorie:     categorie,
		Tags:          input.Tags,
		RawTags:       models.EncodeTags(input.Tags),
		Status:        status,
		Featured:      input.Featured,
		FeaturedImage: input.FeaturedImage,
		AuthorID:      input.AuthorID,
		Views:         input.Views,
	}

	if err := s.db.Create(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	post.Tags = models.DecodeTags(post.RawTags)
	post.Content = models.DecodeContent(post.RawContent)
	return &post, nil
}

// Update applies a partial update. Only fields present in the input are
// re-serialized and written; everything else is left untouched.
func (s *PostService) Update(id string, input *UpdatePostInput) (*models.Post, error) {
	current, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if input.Slug != nil && *input.Slug != current.Slug {
		exists, err := s.SlugExists(*input.Slug)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrSlugTaken
		}
		updates["slug"] = *input.Slug
	}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Excerpt != nil {
		updates["excerpt"] = *input.Excerpt
	}
	if input.ContentSet {
		updates["content"] = models.EncodeContent(input.Content)
	}
	if input.Categorie != nil {
		categorie := models.NormalizeCategory(*input.Categorie)
		if categorie != "" && !models.ValidCategory(categorie) {
			return nil, NewValidationError("categorie", "unknown category")
		}
		updates["categorie"] = categorie
	}
	if input.TagsSet {
		updates["tags"] = models.EncodeTags(input.Tags)
	}
	if input.Status != nil {
		if *input.Status != models.StatusDraft && *input.Status != models.StatusPublished {
			return nil, NewValidationError("status", "must be DRAFT or PUBLISHED")
		}
		updates["status"] = *input.Status
	}
	if input.Featured != nil {
		updates["featured"] = *input.Featured
	}
	if input.FeaturedImage != nil {
		updates["featured_image"] = *input.FeaturedImage
	}
	updates["updated_at"] = time.Now()

	if err := s.db.Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return s.GetByID(id)
}

// Delete removes a post and, by cascade, its view ledger rows.
func (s *PostService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Explicit ledger cascade keeps the behavior identical on engines
		// without enforced foreign keys.
		if err := tx.Where("post_id = ?", id).Delete(&models.PostView{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetByID fetches a single post by id.
func (s *PostService) GetByID(id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetBySlug fetches a single post by slug.
func (s *PostService) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post
	if err := s.db.Where("slug = ?", slug).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// SlugExists reports whether any post, draft or published, holds the slug.
func (s *PostService) SlugExists(slug string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns a filtered page ordered by creation time descending,
// together with the total match count over the same predicate.
func (s *PostService) List(filters PostFilters, limit, offset int) ([]models.Post, int64, error) {
	query := applyFilters(s.db.Model(&models.Post{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Stats computes the whole-table aggregation snapshot.
func (s *PostService) Stats() (*PostStats, error) {
	stats := PostStats{ByCategory: []CategoryCount{}}

	if err := s.db.Model(&models.Post{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Post{}).Where("status = ?", models.StatusPublished).Count(&stats.Published).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Post{}).Where("status = ?", models.StatusDraft).Count(&stats.Drafts).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Post{}).Select("COALESCE(SUM(views),0)").Scan(&stats.TotalViews).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Post{}).
		Select("categorie AS category, COUNT(*) AS count").
		Group("categorie").
		Scan(&stats.ByCategory).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// ValidateOwnership gates a mutation: ErrNotFound for an unknown post,
// ErrForbidden when the caller is not the author. The snapshot is returned
// so the caller avoids a second fetch.
func (s *PostService) ValidateOwnership(postID, callerID string) (*models.Post, error) {
	post, err := s.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		return nil, ErrForbidden
	}
	return post, nil
}

// applyFilters adds the AND-combined filter predicate to a post query.
func applyFilters(query *gorm.DB, filters PostFilters) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Categorie != "" {
		query = query.Where("categorie = ?", filters.Categorie)
	}
	if filters.Date != nil {
		query = query.Where("created_at >= ?", filters.Date.Truncate(time.Second))
	}
	if filters.Featured != nil {
		query = query.Where("featured = ?", *filters.Featured)
	}
	return query
}

// NormalizePagination clamps a requested page window to limit 1..100
// (default 10) and a non-negative offset.
func NormalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
