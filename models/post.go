package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post statuses.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
)

// Post is a published or draft article. Content and Tags are persisted as
// serialized text (columns content/tags) and decoded into Content/Tags on
// every read; Author is attached by the identity enrichment layer and never
// stored.
type Post struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Slug          string    `gorm:"size:191;not null;uniqueIndex" json:"slug"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Excerpt       string    `gorm:"type:text" json:"excerpt"`
	RawContent    string    `gorm:"column:content;type:text" json:"-"`
	Content       any       `gorm:"-" json:"content"`
	Categorie     string    `gorm:"size:64;index" json:"categorie"`
	RawTags       string    `gorm:"column:tags;type:text;not null;default:'[]'" json:"-"`
	Tags          []string  `gorm:"-" json:"tags"`
	Status        string    `gorm:"size:16;not null;default:'DRAFT';index" json:"status"`
	Featured      bool      `gorm:"not null;default:false" json:"featured"`
	FeaturedImage string    `gorm:"size:512" json:"featuredImage"`
	AuthorID      string    `gorm:"size:64;not null;index" json:"authorId"`
	Views         int64     `gorm:"not null;default:0" json:"views"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Author *AuthorInfo `gorm:"-" json:"author,omitempty"`
}

// AuthorInfo is the public author profile resolved from the external
// identity service.
type AuthorInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Username string `json:"username"`
}

// BeforeCreate assigns an id and serializes the logical fields.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.RawTags == "" {
		p.RawTags = EncodeTags(p.Tags)
	}
	if p.RawContent == "" {
		p.RawContent = EncodeContent(p.Content)
	}
	return nil
}

// AfterFind decodes the serialized columns back to their logical form.
func (p *Post) AfterFind(tx *gorm.DB) error {
	p.Tags = DecodeTags(p.RawTags)
	p.Content = DecodeContent(p.RawContent)
	return nil
}

// EncodeTags serializes tags as a JSON array; nil becomes "[]".
func EncodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeTags parses the serialized tag list; malformed or legacy
// placeholder values decode to the empty list.
func DecodeTags(raw string) []string {
	if raw == "" || raw == "-" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// EncodeContent serializes an opaque content document for storage. Strings
// are stored verbatim so markdown bodies survive the round trip; anything
// else is stored as JSON.
func EncodeContent(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// DecodeContent applies the bimodal decoding rule: text starting with the
// "---" frontmatter marker is markdown and returned unchanged, everything
// else is treated as a serialized JSON document. Malformed documents decode
// to nil so legacy rows stay readable.
func DecodeContent(raw string) any {
	if raw == "" || raw == "-" {
		return nil
	}
	if strings.HasPrefix(raw, "---") {
		return raw
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}
	return doc
}
