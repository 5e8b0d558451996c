package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"library-backend/db/migrations"
	"library-backend/internal/config"
	"library-backend/internal/infrastructure/database"
	"library-backend/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, reset, status, version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	if err := run(*command, cfg.Database); err != nil {
		log.Error().Err(err).Str("command", *command).Msg("migration failed")
		os.Exit(1)
	}
}

func run(command string, dbCfg *database.DBConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.OpenSQLX(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	switch command {
	case "up":
		if err := migrations.Up(ctx, db.DB); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
	case "down":
		if err := migrations.Down(ctx, db.DB); err != nil {
			return err
		}
		log.Info().Msg("last migration rolled back")
	case "reset":
		if err := migrations.Reset(ctx, db.DB); err != nil {
			return err
		}
		log.Info().Msg("all migrations rolled back")
	case "status":
		return migrations.Status(ctx, db.DB)
	case "version":
		v, err := migrations.Version(ctx, db.DB)
		if err != nil {
			return err
		}
		fmt.Println(v)
	default:
		return fmt.Errorf("unknown command %q, use: up, down, reset, status, version", command)
	}
	return nil
}
