package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/app"
	"github.com/Freeeeeet/tuition_market/internal/config"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.AdminConfigured() {
		logger.Fatal("ADMIN_EMAIL and ADMIN_EXTERNAL_ID must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeStore()

	users := service.NewUserService(store.Users, nil, nil, logger)

	admin, created, err := users.EnsureAdmin(ctx, service.AdminInput{
		ExternalID: cfg.AdminExternalID,
		Name:       cfg.AdminName,
		Email:      cfg.AdminEmail,
		Phone:      cfg.AdminPhone,
		City:       cfg.AdminCity,
	})
	if err != nil {
		logger.Fatal("Failed to create admin", zap.Error(err))
	}

	if created {
		fmt.Printf("Admin created: id=%d email=%s\n", admin.ID, admin.Email)
		return
	}
	fmt.Printf("Admin already exists: id=%d email=%s role=%s\n", admin.ID, admin.Email, admin.Role)
}
