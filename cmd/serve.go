package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/i-m-alive/Visitor-Log-Book/internal/blobstore"
	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
	"github.com/i-m-alive/Visitor-Log-Book/internal/embedding"
	"github.com/i-m-alive/Visitor-Log-Book/internal/facematch"
	"github.com/i-m-alive/Visitor-Log-Book/internal/metrics"
	"github.com/i-m-alive/Visitor-Log-Book/internal/notify"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry/postgres"
	"github.com/i-m-alive/Visitor-Log-Book/internal/resolve"
	"github.com/i-m-alive/Visitor-Log-Book/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the visitor log book web server.
The server exposes the kiosk scan endpoints, the reception registry
views and the Prometheus metrics endpoint.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("skip-migrate", false, "Do not run schema migrations on startup")
}

// countingNotifier wraps a notifier and counts delivery failures.
type countingNotifier struct {
	inner resolve.Notifier
}

func (n *countingNotifier) SendArrival(ctx context.Context, toEmail, visitorName, purpose, phone string) error {
	err := n.inner.SendArrival(ctx, toEmail, visitorName, purpose, phone)
	if err != nil {
		metrics.NotificationsFailedTotal.Inc()
	}
	return err
}

// buildEngine assembles the resolution engine with its optional
// collaborators. Missing Supabase or SMTP config degrades to running
// without photo storage or notifications.
func buildEngine(cfg *config.Config, repo *postgres.VisitorRepository, logger *slog.Logger) *resolve.Engine {
	var blobs resolve.BlobStore
	if store, err := blobstore.NewSupabaseStore(&cfg.Supabase); err != nil {
		logger.Warn("photo storage disabled", slog.String("reason", err.Error()))
	} else {
		blobs = store
	}

	var notifier resolve.Notifier
	if mailer := notify.NewMailer(cfg.Email); mailer.Enabled() {
		notifier = &countingNotifier{inner: mailer}
	} else {
		logger.Warn("arrival notifications disabled, SMTP not configured")
	}

	matcher := facematch.NewMatcher(cfg.Match.Threshold)
	return resolve.NewEngine(repo, matcher, resolve.Options{
		Blobs:          blobs,
		Notifier:       notifier,
		Logger:         logger,
		ReResolveLimit: cfg.Match.ReResolveLimit,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	if !mustGetBool(cmd, "skip-migrate") {
		if err := pool.Migrate(ctx, cfg.Embedding.Dim); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	repo := postgres.NewVisitorRepository(pool)
	engine := buildEngine(cfg, repo, logger)
	embedder := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Dim)

	if present, err := repo.CountPresent(ctx); err == nil {
		metrics.PresentVisitors.Set(float64(present))
	} else {
		logger.Warn("could not read present count", slog.String("error", err.Error()))
	}

	server := web.NewServer(cfg, engine, repo, embedder, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", slog.String("error", err.Error()))
		}
		engine.WaitNotifications()
	}()

	logger.Info("visitor log book ready",
		slog.String("host", cfg.Web.Host),
		slog.Int("port", cfg.Web.Port),
		slog.Float64("match_threshold", cfg.Match.Threshold),
	)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
