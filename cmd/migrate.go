package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create the visitors table, required extensions and indexes.
Safe to run repeatedly; existing objects are left untouched.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pool.Migrate(ctx, cfg.Embedding.Dim); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Printf("Schema ready (embedding dimension %d)\n", cfg.Embedding.Dim)
	return nil
}
