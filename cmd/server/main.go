package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"sticky-uploads/internal/config"
	"sticky-uploads/internal/signing"
	"sticky-uploads/internal/storage"
	"sticky-uploads/internal/store"
	"sticky-uploads/internal/upload"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, storage: %s, db: %s)", cfg.Server.Port, cfg.Storage.Driver, cfg.Database.Driver)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 3. Bootstrap upload records table
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap upload records: %v", err)
	}
	log.Println("Upload records ready")

	// 4. Register storage backends. Tokens name backends by identifier, so
	// every backend that ever minted a token must stay registered here.
	reg := storage.NewRegistry()
	local := reg.Register(func() storage.FileStorage { return storage.NewLocalStorage(cfg.Storage.LocalPath) })
	blobStore := storage.NewBadgerStorage(cfg.Storage.BadgerPath)
	defer blobStore.Close()
	blob := reg.Register(func() storage.FileStorage { return blobStore })
	switch cfg.Storage.Driver {
	case "badger":
		reg.SetDefault(blob)
	default:
		reg.SetDefault(local)
	}

	// 5. Build signer and upload policy
	signer := signing.New(cfg.Signing.SecretKey, time.Duration(cfg.Signing.TokenTTLMinutes)*time.Minute)
	policy, err := upload.NewPolicy(cfg.Upload.Rules)
	if err != nil {
		log.Fatalf("Failed to compile upload rules: %v", err)
	}

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    int(cfg.Upload.MaxFileSize) + 1<<20,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Upload + file routes
	handler := upload.NewHandler(db, reg, signer, policy, cfg.Upload.MaxFileSize)
	upload.RegisterRoutes(app, handler)

	// 9. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *upload.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(upload.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(upload.ErrorResponse{
		Error: &upload.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
