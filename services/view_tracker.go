package services

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alessandro1809/blog-api/models"
	"github.com/Alessandro1809/blog-api/utils"
)

// DefaultViewCooldown is the window during which repeat views from the same
// client do not count.
const DefaultViewCooldown = 30 * time.Minute

// ViewTracker decides, per (post, client IP), whether a read counts as a
// view, and maintains the post counter. The ledger check gives the sliding
// cooldown; the unique (post_id, ip_address, bucket) index closes the
// concurrent check-then-insert race: of two simultaneous first views only
// one insert lands, and only that caller increments the counter.
type ViewTracker struct {
	db       *gorm.DB
	cooldown time.Duration
}

// NewViewTracker creates a tracker with the given cooldown; a
// non-positive cooldown falls back to the 30-minute default.
func NewViewTracker(db *gorm.DB, cooldown time.Duration) *ViewTracker {
	if cooldown <= 0 {
		cooldown = DefaultViewCooldown
	}
	return &ViewTracker{db: db, cooldown: cooldown}
}

// TrackView records a view attempt and reports whether it counted. The
// counter increment is evaluated server-side so concurrent trackers for the
// same post never lose updates.
func (t *ViewTracker) TrackView(postID, ipAddress, userAgent string) (bool, error) {
	now := time.Now()
	cooldownStart := now.Add(-t.cooldown)

	var recent int64
	err := t.db.Model(&models.PostView{}).
		Where("post_id = ? AND ip_address = ? AND viewed_at >= ?", postID, ipAddress, cooldownStart).
		Count(&recent).Error
	if err != nil {
		return false, err
	}
	if recent > 0 {
		return false, nil
	}

	record := models.PostView{
		PostID:    postID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Bucket:    now.Unix() / int64(t.cooldown/time.Second),
		ViewedAt:  now,
	}
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "ip_address"}, {Name: "bucket"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&record)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent tracker; its increment stands.
		return false, nil
	}

	err = t.db.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// CleanupOldViews deletes ledger rows older than the horizon and returns
// the number removed. Post counters are never decremented.
func (t *ViewTracker) CleanupOldViews(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := t.db.Where("viewed_at < ?", cutoff).Delete(&models.PostView{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// StartRetentionCleaner launches a background goroutine that periodically
// trims the view ledger. Best-effort; failures are logged and retried on the
// next tick.
func (t *ViewTracker) StartRetentionCleaner(interval, retention time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			removed, err := t.CleanupOldViews(retention)
			if err != nil {
				if utils.Sugar != nil {
					utils.Sugar.Warnf("view ledger cleanup failed: %v", err)
				}
				continue
			}
			if removed > 0 && utils.Sugar != nil {
				utils.Sugar.Infof("view ledger cleanup removed %d records", removed)
			}
		}
	}()
}
