package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"eduplatform/backend/cache"
	"eduplatform/backend/config"
	"eduplatform/backend/files"
	"eduplatform/backend/middleware"
	"eduplatform/backend/routes"
	"eduplatform/backend/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	logger := utils.InitLogger(cfg)

	fileCache := cache.NewMemory(cfg.FileCacheTTL, cfg.FileCacheSize)
	defer fileCache.Stop()
	resolver := files.NewResolver(cfg.BotAPIBase, cfg.BotToken, fileCache)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	routes.SetupRoutes(app, db, cfg, resolver, logger)

	logger.WithField("port", cfg.ServerPort).Info("starting server")
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
