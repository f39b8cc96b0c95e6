package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vocabhero/internal/audio"
	"vocabhero/internal/config"
	"vocabhero/internal/gateway"
	"vocabhero/internal/handlers"
	"vocabhero/internal/logger"
	"vocabhero/internal/metrics"
	"vocabhero/internal/security"
	"vocabhero/internal/service"
	"vocabhero/internal/storage"
	"vocabhero/internal/store"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "vocabhero",
		Short:        "Vocab Hero API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default ./vocabhero.yaml)")

	hashCmd := &cobra.Command{
		Use:   "hash-pin [pin]",
		Short: "Print the bcrypt hash to use as parent.pin_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := security.HashPIN(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	rootCmd.AddCommand(hashCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	backend, err := storage.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()
	log.Info("storage ready", zap.String("backend", cfg.Storage.Backend))

	st := store.New(backend, log)
	st.Subscribe(func(e store.Event) {
		metrics.StoreEvents.WithLabelValues(string(e.Kind)).Inc()
	})

	cache, err := audio.NewCache(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open audio cache: %w", err)
	}
	player := audio.NewPlayer(cfg.AI.SampleRate, log)
	defer player.Close()

	gw, err := gateway.New(ctx, cfg.AI, log)
	if err != nil {
		return fmt.Errorf("failed to create ai gateway: %w", err)
	}
	log.Info("ai gateway ready", zap.String("provider", cfg.AI.Provider), zap.String("model", cfg.AI.TextModel))

	// Initialize services
	profileService := service.NewProfileService(st, log)
	wordService := service.NewWordService(st, gw, player, cache, cfg.AI, log)
	gameService := service.NewGameService(st, gw, wordService, log)
	progressService := service.NewProgressService(st, log)
	backupService := service.NewBackupService(st, log)
	reportService, err := service.NewReportService(ctx, cfg.Email, progressService, log)
	if err != nil {
		return err
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	middleware := handlers.NewMiddleware(cfg.Parent, limiter, log)
	if !middleware.ParentLocked() {
		log.Warn("parent.pin_hash not set, parent actions are unlocked")
	}
	router := handlers.NewRouter(handlers.Handlers{
		Middleware: middleware,
		Profiles:   handlers.NewProfileHandler(profileService, log),
		Words:      handlers.NewWordHandler(wordService, log),
		Game:       handlers.NewGameHandler(gameService, log),
		Parent:     handlers.NewParentHandler(middleware, progressService, reportService, backupService, log),
		Events:     handlers.NewEventsHandler(st, log),
	}, cfg.Server.AllowedOrigins, log)

	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
