package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	redisadapter "github.com/ssolovev/fishmonger/internal/adapters/redis"
	"github.com/ssolovev/fishmonger/internal/adapters/telegram"
	"github.com/ssolovev/fishmonger/internal/config"
	"github.com/ssolovev/fishmonger/internal/logging"
	"github.com/ssolovev/fishmonger/internal/observability"
	"github.com/ssolovev/fishmonger/pkg/commerce"
	"github.com/ssolovev/fishmonger/pkg/dialog"
	"github.com/ssolovev/fishmonger/pkg/domain"
	"github.com/ssolovev/fishmonger/pkg/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Long:  `Connects to Telegram and Redis and serves the shop dialog until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cfg *config.Config) error {
	logger := logging.New(logging.ParseLevel(cfg.Log.Level))

	// Observability.
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	checker := observability.NewChecker()

	// Session persistence.
	redisClient := backend.NewClient(&backend.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	store := redisadapter.NewFromClient(redisClient, redisadapter.WithTTL(cfg.Session.TTL.Std()))
	managerOpts := []session.Option{session.WithLogger(logger)}
	if cfg.Session.DistributedLock {
		managerOpts = append(managerOpts,
			session.WithLocker(redisadapter.NewLocker(redisClient, "fishmonger:")))
	}
	sessions := session.NewManager(store, managerOpts...)

	// Commerce client, instrumented.
	client := commerce.New(cfg.Commerce.BaseURL, cfg.Commerce.ClientID, cfg.Commerce.ClientSecret,
		commerce.WithLogger(logger))
	instrumented := metrics.InstrumentCommerce(client)

	// Dialog core.
	machine := dialog.New(instrumented,
		dialog.WithLogger(logger),
		dialog.WithHooks(dialog.Hooks{OnTransition: metrics.ObserveTransition}),
	)

	handler := func(ctx context.Context, ev domain.Event) (*domain.Reply, error) {
		var reply *domain.Reply
		err := sessions.Update(ctx, ev.UserID, func(ctx context.Context, sess *domain.Session) error {
			var err error
			reply, err = machine.Step(ctx, sess, ev)
			return err
		})
		return reply, err
	}

	bot, err := telegram.New(cfg.Telegram.Token, handler, telegram.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Operational endpoint.
	ops := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: observability.NewHandler(registry, checker),
	}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", "addr", ops.Addr)
		serverErrors <- ops.ListenAndServe()
	}()

	botErrors := make(chan error, 1)
	go func() {
		checker.SetReady()
		botErrors <- bot.Run(ctx)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("metrics server error: %w", err)

	case err := <-botErrors:
		checker.SetDraining()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := ops.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("metrics server shutdown incomplete", "err", shutdownErr)
			ops.Close()
		}

		if err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("fishmonger stopped gracefully")
		return nil
	}
}
