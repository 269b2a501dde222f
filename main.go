package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"run-leaderboard-service/config"
	"run-leaderboard-service/database"
	"run-leaderboard-service/handlers"
	"run-leaderboard-service/logger"
	"run-leaderboard-service/services"
	"run-leaderboard-service/utils"
	"run-leaderboard-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

// Multipart framing around the replay itself.
const bodyLimitSlack = 1 << 20

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	var cfg config.Config
	if err := config.ReadEnvConfig(&cfg); err != nil {
		log.Fatal("failed to read config: ", err)
	}
	lg := logger.NewLogger(&cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		lg.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	xp := services.NewXPSystemsService(db, lg)
	if err := xp.Init(ctx); err != nil {
		lg.Error("failed to load XP parameters", "error", err)
		os.Exit(1)
	}

	store, err := newReplayStore(ctx, &cfg)
	if err != nil {
		lg.Error("failed to initialise replay store", "store", cfg.ReplayStore, "error", err)
		os.Exit(1)
	}

	sessions := services.NewRunSessionService(db, store, xp, lg)
	sessions.MaxReplayBytes = int64(cfg.MaxReplayBytes)

	reaper := workers.NewSessionReaper(sessions, cfg.SessionTTL, cfg.SessionReapInterval, lg)
	if err := reaper.Start(); err != nil {
		lg.Error("failed to start session reaper", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxReplayBytes + bodyLimitSlack,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupSessionRoutes(app, handlers.NewSessionHandler(sessions, lg), cfg.JWTSecret)

	if cfg.ReplayStore == config.ReplayStoreLocal {
		app.Static("/uploads", cfg.UploadDir)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Error("server error", "error", err)
			stop()
		}
	}()
	lg.Info("server running", "port", cfg.Port, "origins", cfg.AllowedOrigins, "store", cfg.ReplayStore)

	<-ctx.Done()
	lg.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		lg.Error("server shutdown", "error", err)
	}
	if err := reaper.Stop(); err != nil {
		lg.Error("session reaper shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newReplayStore(ctx context.Context, cfg *config.Config) (utils.FileStore, error) {
	if cfg.ReplayStore == config.ReplayStoreR2 {
		return utils.NewR2Store(ctx, utils.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
	}
	return utils.NewLocalStore(cfg.UploadDir, "/uploads")
}
