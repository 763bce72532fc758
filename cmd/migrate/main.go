package main

import (
	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/database"
	"github.com/inkwell-labs/inkwell/internal/env"
	"github.com/inkwell-labs/inkwell/internal/model"
	"go.uber.org/zap"
)

func init() {
	env.LoadEnv()
}

func main() {
	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()
	cfg := config.GetConfig()

	logger.Infof("Database configuration: %+v", cfg.DB)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	db.Exec(`CREATE EXTENSION IF NOT EXISTS citext`)

	migrateErr := db.AutoMigrate(
		&model.User{},
		&model.Token{},
		&model.OAuthProvider{},
		&model.Contract{},
		&model.Party{},
		&model.Signature{},
		&model.SigningToken{},
	)
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}
}
