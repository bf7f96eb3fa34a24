package main

import (
	"log"
	"time"

	"github.com/Alessandro1809/blog-api/config"
	"github.com/Alessandro1809/blog-api/models"
	"github.com/Alessandro1809/blog-api/routes"
	"github.com/Alessandro1809/blog-api/services"
	"github.com/Alessandro1809/blog-api/utils"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Post{}, &models.PostView{})
	defer config.CloseDatabase()

	r := routes.SetupRouter(db)

	// Periodic view-ledger retention cleanup (counters are never touched).
	tracker := services.NewViewTracker(db, time.Duration(cfg.ViewCooldownMinutes)*time.Minute)
	tracker.StartRetentionCleaner(
		time.Duration(cfg.ViewCleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.ViewRetentionDays)*24*time.Hour,
	)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
