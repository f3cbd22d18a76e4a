package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/loader"
	"yamdb/proj/internal/storage/postgres"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	dataDir string
	migrate bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "loaddata",
	Short: "Import the YaMDb CSV exports into the database",
	Long: `Reads category.csv, genre.csv, users.csv, titles.csv, genre_title.csv,
review.csv and comments.csv from the data directory and upserts them by id.
Running it twice leaves the database unchanged. Missing files are skipped.`,
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log := logger.SetupLogger(cfg.Debug, "loaddata")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	storage, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer storage.Close()

	if migrate {
		if err := storage.Migrate(ctx); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
		log.Info("migrations applied")
	}

	counts, err := loader.Load(ctx, log, storage.Conn, os.DirFS(dataDir))
	if err != nil {
		return err
	}
	for table, n := range counts {
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s %d rows\n", table, n)
	}
	return nil
}

func init() {
	defaultCfgPath := os.Getenv("CONFIG_PATH")
	if defaultCfgPath == "" {
		defaultCfgPath = "config/local.yml"
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultCfgPath, "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "static/data", "Directory with the CSV files")
	rootCmd.PersistentFlags().BoolVar(&migrate, "migrate", false, "Apply migrations before importing")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall import deadline")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
