package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Alessandro1809/blog-api/config"
	"github.com/Alessandro1809/blog-api/controllers"
	"github.com/Alessandro1809/blog-api/middleware"
	"github.com/Alessandro1809/blog-api/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	api.GET("/categories", postController.GetCategories)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", middleware.OptionalAuth(), postController.ListPosts)
	postsGroup.GET("/stats/views", statsController.GetStats)
	postsGroup.GET("/id/:id", middleware.OptionalAuth(), postController.GetPostByID)
	postsGroup.GET("/:slug", middleware.OptionalAuth(), postController.GetPostBySlug)

	protected := api.Group("/posts")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("", postController.CreatePost)
	protected.PUT("/:id", postController.UpdatePost)
	protected.DELETE("/:id", postController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
