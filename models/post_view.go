package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostView is one row of the append-only view ledger: evidence that a client
// viewed a post at a point in time. Bucket is ViewedAt aligned down to the
// dedup cooldown window; the unique index over (post_id, ip_address, bucket)
// makes a concurrent duplicate insert fail harmlessly instead of double
// counting.
type PostView struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index:idx_post_views_lookup,priority:1;index:idx_post_views_dedup,unique,priority:1" json:"postId"`
	IPAddress string    `gorm:"size:64;not null;index:idx_post_views_lookup,priority:2;index:idx_post_views_dedup,unique,priority:2" json:"ipAddress"`
	UserAgent string    `gorm:"size:512" json:"userAgent"`
	Bucket    int64     `gorm:"not null;index:idx_post_views_dedup,unique,priority:3" json:"-"`
	ViewedAt  time.Time `gorm:"not null;index:idx_post_views_lookup,priority:3" json:"viewedAt"`

	Post *Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName keeps the legacy table name.
func (PostView) TableName() string {
	return "post_views"
}

// BeforeCreate assigns an id.
func (v *PostView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
