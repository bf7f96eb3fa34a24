package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Alessandro1809/blog-api/config"
	"github.com/Alessandro1809/blog-api/middleware"
	"github.com/Alessandro1809/blog-api/models"
	"github.com/Alessandro1809/blog-api/services"
	"github.com/Alessandro1809/blog-api/utils"
)

// PostController exposes the post CRUD, listing/search and category catalog
// endpoints.
type PostController struct {
	posts   *services.PostService
	search  *services.SearchService
	tracker *services.ViewTracker
	authors *services.AuthorClient
}

// NewPostController creates a new PostController instance wired to the
// shared database handle.
func NewPostController(db *gorm.DB) *PostController {
	cfg := config.Get()
	return &PostController{
		posts:   services.NewPostService(db),
		search:  services.NewSearchService(db),
		tracker: services.NewViewTracker(db, time.Duration(cfg.ViewCooldownMinutes)*time.Minute),
		authors: services.NewAuthorClient(cfg.AuthorAPIBase, cfg.AuthorAPIToken),
	}
}

// ListPosts returns a filtered, paginated page of posts. A non-empty search
// term switches to keyword-search mode; unauthenticated callers only ever
// see published posts.
func (p *PostController) ListPosts(ctx *gin.Context) {
	limit, offset := parsePagination(ctx.Query("limit"), ctx.Query("offset"))
	term := strings.TrimSpace(ctx.Query("search"))

	filters, err := parseFilters(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
		return
	}
	authenticated := middleware.IsAuthenticated(ctx)
	if !authenticated {
		// Drafts are never visible to anonymous readers.
		filters.Status = models.StatusPublished
	}

	// Cache anonymous non-search pages to keep the hot listing cheap.
	cacheable := term == "" && !authenticated
	cacheKey := ""
	if cacheable {
		cacheKey = listCacheKey(filters, limit, offset)
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	var posts []models.Post
	var total int64
	if term != "" {
		posts, total, err = p.search.Search(term, filters, limit, offset)
	} else {
		posts, total, err = p.posts.List(filters, limit, offset)
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list posts")
		return
	}

	p.authors.EnrichPosts(posts)

	if posts == nil {
		posts = []models.Post{}
	}
	payload := gin.H{
		"items": posts,
		"total": total,
		"pagination": gin.H{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": int64(offset+limit) < total,
		},
	}
	if cacheable {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPostByID returns a single post addressed by id.
func (p *PostController) GetPostByID(ctx *gin.Context) {
	post, err := p.posts.GetByID(ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	p.renderPost(ctx, post)
}

// GetPostBySlug returns a single post addressed by slug.
func (p *PostController) GetPostBySlug(ctx *gin.Context) {
	post, err := p.posts.GetBySlug(ctx.Param("slug"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	p.renderPost(ctx, post)
}

// renderPost enforces draft visibility, runs the view tracker for published
// reads and writes the enriched post.
func (p *PostController) renderPost(ctx *gin.Context, post *models.Post) {
	if post.Status == models.StatusDraft && !middleware.IsAuthenticated(ctx) {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	if post.Status == models.StatusPublished && ctx.Query("skipViewIncrement") != "true" {
		counted, err := p.tracker.TrackView(post.ID, ctx.ClientIP(), ctx.GetHeader("User-Agent"))
		if err != nil {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("view tracking failed post=%s err=%v", post.ID, err)
			}
		} else if counted {
			post.Views++
		}
	}

	p.authors.EnrichPost(post)
	utils.Success(ctx, gin.H{"post": post})
}

type createPostRequest struct {
	Slug          string          `json:"slug" binding:"required,min=1"`
	Title         string          `json:"title" binding:"required,min=1"`
	Excerpt       string          `json:"excerpt"`
	Content       json.RawMessage `json:"content"`
	Categorie     string          `json:"categorie"`
	Tags          []string        `json:"tags"`
	Status        string          `json:"status"`
	Featured      bool            `json:"featured"`
	FeaturedImage string          `json:"featuredImage"`
	Views         int64           `json:"views"`
}

// CreatePost inserts a new post owned by the authenticated caller.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req createPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}

	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := p.posts.Create(&services.CreatePostInput{
		Slug:          strings.TrimSpace(req.Slug),
		Title:         title,
		Excerpt:       utils.Sanitize(req.Excerpt),
		Content:       decodeRawContent(req.Content),
		Categorie:     req.Categorie,
		Tags:          req.Tags,
		Status:        req.Status,
		Featured:      req.Featured,
		FeaturedImage: req.FeaturedImage,
		AuthorID:      callerID,
		Views:         req.Views,
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Created(ctx, gin.H{"post": post})
}

type updatePostRequest struct {
	Slug          *string         `json:"slug"`
	Title         *string         `json:"title"`
	Excerpt       *string         `json:"excerpt"`
	Content       json.RawMessage `json:"content"`
	Categorie     *string         `json:"categorie"`
	Tags          *[]string       `json:"tags"`
	Status        *string         `json:"status"`
	Featured      *bool           `json:"featured"`
	FeaturedImage *string         `json:"featuredImage"`
}

// UpdatePost applies a partial update to a post owned by the caller.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req updatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	postID := ctx.Param("id")
	if _, err := p.posts.ValidateOwnership(postID, callerID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	input := services.UpdatePostInput{
		Slug:          req.Slug,
		Categorie:     req.Categorie,
		Status:        req.Status,
		Featured:      req.Featured,
		FeaturedImage: req.FeaturedImage,
	}
	if req.Title != nil {
		title := utils.Sanitize(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40023, "title cannot be empty")
			return
		}
		input.Title = &title
	}
	if req.Excerpt != nil {
		excerpt := utils.Sanitize(*req.Excerpt)
		input.Excerpt = &excerpt
	}
	if req.Content != nil {
		input.Content = decodeRawContent(req.Content)
		input.ContentSet = true
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
		input.TagsSet = true
	}

	post, err := p.posts.Update(postID, &input)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post owned by the caller together with its view
// ledger.
func (p *PostController) DeletePost(ctx *gin.Context) {
	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	postID := ctx.Param("id")
	if _, err := p.posts.ValidateOwnership(postID, callerID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	if err := p.posts.Delete(postID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// GetCategories returns the static category catalog.
func (p *PostController) GetCategories(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"categories": models.Categories})
}

// parseFilters reads the AND-combined listing filters from the query
// string.
func parseFilters(ctx *gin.Context) (services.PostFilters, error) {
	var filters services.PostFilters

	if status := strings.TrimSpace(ctx.Query("status")); status != "" {
		if status != models.StatusDraft && status != models.StatusPublished {
			return filters, services.NewValidationError("status", "must be DRAFT or PUBLISHED")
		}
		filters.Status = status
	}
	if categorie := strings.TrimSpace(ctx.Query("categorie")); categorie != "" {
		code := models.NormalizeCategory(categorie)
		if !models.ValidCategory(code) {
			return filters, services.NewValidationError("categorie", "unknown category")
		}
		filters.Categorie = code
	}
	if date := strings.TrimSpace(ctx.Query("date")); date != "" {
		parsed, err := parseDate(date)
		if err != nil {
			return filters, services.NewValidationError("date", "unparsable date")
		}
		filters.Date = &parsed
	}
	if featured := strings.TrimSpace(ctx.Query("featured")); featured != "" {
		value, err := strconv.ParseBool(featured)
		if err != nil {
			return filters, services.NewValidationError("featured", "must be a boolean")
		}
		filters.Featured = &value
	}
	return filters, nil
}

// parseDate accepts RFC3339 or a plain calendar date.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func parsePagination(limitStr, offsetStr string) (int, int) {
	limit := 10
	offset := 0
	if v, err := strconv.Atoi(limitStr); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(offsetStr); err == nil {
		offset = v
	}
	return services.NormalizePagination(limit, offset)
}

// decodeRawContent turns the raw JSON body value into the opaque content
// document (string for markdown bodies, tree for structured documents).
func decodeRawContent(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	var content any
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil
	}
	return content
}

func listCacheKey(f services.PostFilters, limit, offset int) string {
	date := ""
	if f.Date != nil {
		date = f.Date.UTC().Format(time.RFC3339)
	}
	featured := ""
	if f.Featured != nil {
		featured = strconv.FormatBool(*f.Featured)
	}
	return fmt.Sprintf("cache:posts:list:status=%s:cat=%s:date=%s:feat=%s:limit=%d:offset=%d",
		f.Status, f.Categorie, date, featured, limit, offset)
}

// respondServiceError maps the service error taxonomy onto HTTP outcomes.
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
	case errors.Is(err, services.ErrSlugTaken):
		utils.Error(ctx, http.StatusConflict, 40901, "slug already exists")
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only modify your own posts")
	case services.IsValidation(err):
		utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("storage failure: %v", err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal server error")
	}
}
