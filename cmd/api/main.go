package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/storage/postgres"
)

const version = "1.0.0"

func main() {
	defaultCfgPath := os.Getenv("CONFIG_PATH")
	if defaultCfgPath == "" {
		defaultCfgPath = "config/local.yml"
	}
	cfgPath := flag.String("config", defaultCfgPath, "path to config file")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug, "api")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	storage, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		log.Error("failed to connect to database", "errMsg", err.Error())
		os.Exit(1)
	}
	defer storage.Close()
	log.Info("database connection established")

	if *migrate {
		if err := storage.Migrate(ctx); err != nil {
			log.Error("failed to apply migrations", "errMsg", err.Error())
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	app := NewApplication(cfg, log, services.New(log, cfg, storage))
	ln, err := app.listen()
	if err != nil {
		log.Error("failed to bind", "errMsg", err.Error())
		os.Exit(1)
	}
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := app.serve(sigCtx, ln); err != nil {
		log.Error("shutting down the server", "reason", err.Error())
		os.Exit(1)
	}
}
