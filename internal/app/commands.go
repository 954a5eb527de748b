package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"autodealer/internal/config"
	"autodealer/internal/repositories"
	"autodealer/internal/services"
)

// Migrate creates missing tables and exits.
func Migrate(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	closeDB(db)
	logrus.Info("[app][migrate] schema is up to date")
	return nil
}

// CreateAdmin adds a back-office account from the command line.
func CreateAdmin(ctx context.Context, configPath string, in services.NewAdminInput) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	auth := services.NewAuthService(repositories.NewAdminRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	admin, err := auth.CreateAdmin(ctx, in)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"admin_id": admin.ID, "email": admin.Email}).Info("[app][create-admin] done")
	return nil
}
