package main

import (
	"context"
	"time"

	"github.com/inkwell-labs/inkwell/internal/auth"
	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/database"
	"github.com/inkwell-labs/inkwell/internal/env"
	"github.com/inkwell-labs/inkwell/internal/repository"
	"github.com/inkwell-labs/inkwell/internal/util"
	"go.uber.org/zap"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

// The sweeper reclaims expired, never-consumed signing token rows. Expiry
// enforcement happens on every validation regardless, so this loop is purely
// storage hygiene and can lag or die without loosening any guarantee.
func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	jwtService := auth.NewJwt(cfg.Auth,
		logger)
	repo := repository.NewRepository(db, logger, jwtService, nil)

	logger.Infof("Sweeping expired signing tokens every %s", cfg.Signing.SweepInterval)

	ctx := context.Background()
	ticker := time.NewTicker(cfg.Signing.SweepInterval)
	defer ticker.Stop()

	sweep(ctx, repo, logger)
	for range ticker.C {
		sweep(ctx, repo, logger)
	}
}

func sweep(ctx context.Context, repo *repository.Repository, logger *zap.SugaredLogger) {
	deleted, err := repo.SigningToken.DeleteExpired(ctx, nil, time.Now())
	if err != nil {
		logger.Errorf("Failed to sweep expired signing tokens: %v", err)
		return
	}

	if deleted > 0 {
		logger.Infof("Swept %d expired signing tokens", deleted)
	}
}
