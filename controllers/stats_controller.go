package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Alessandro1809/blog-api/services"
	"github.com/Alessandro1809/blog-api/utils"
)

const statsCacheKey = "cache:posts:stats"

// StatsController serves the whole-table aggregation snapshot.
type StatsController struct {
	posts *services.PostService
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{posts: services.NewPostService(db)}
}

// GetStats returns totals, status breakdown, accumulated views and the
// per-category distribution.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(statsCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	stats, err := s.posts.Stats()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to compute stats")
		return
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: stats}
	utils.CacheSetJSON(statsCacheKey, wrapper, 5*time.Minute)
	utils.Success(ctx, stats)
}
