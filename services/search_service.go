package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/Alessandro1809/blog-api/models"
)

// SearchService answers keyword queries over posts. Matching is
// case-insensitive substring over title, excerpt, category (stored code and
// catalog label), the serialized tag list and the serialized content
// document. No tokenization, no ranking; ties are broken by creation time
// descending like the plain listing.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a new SearchService instance.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search returns the page of posts matching the term combined with the
// plain AND-filters, plus the total match count.
func (s *SearchService) Search(term string, filters PostFilters, limit, offset int) ([]models.Post, int64, error) {
	pattern := "%" + strings.ToLower(term) + "%"

	match := s.db.
		Where("LOWER(title) LIKE ?", pattern).
		Or("LOWER(excerpt) LIKE ?", pattern).
		Or("LOWER(categorie) LIKE ?", pattern).
		Or("LOWER(tags) LIKE ?", pattern).
		Or("LOWER(content) LIKE ?", pattern)

	// Clients search by the display label while rows store the code.
	if codes := categoryCodesMatching(term); len(codes) > 0 {
		match = match.Or("categorie IN ?", codes)
	}

	query := applyFilters(s.db.Model(&models.Post{}).Where(match), filters)

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

// categoryCodesMatching returns catalog codes whose label contains the term,
// case-insensitively.
func categoryCodesMatching(term string) []string {
	needle := strings.ToLower(term)
	var codes []string
	for _, c := range models.Categories {
		if strings.Contains(strings.ToLower(c.Label), needle) {
			codes = append(codes, c.Value)
		}
	}
	return codes
}
