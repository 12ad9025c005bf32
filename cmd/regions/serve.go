package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/pkg/adapters/file"
	httpAdapter "github.com/aretw0/regions/pkg/adapters/http"
	"github.com/aretw0/regions/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/regions/pkg/adapters/redis"
	"github.com/aretw0/regions/pkg/observability"
	"github.com/aretw0/regions/pkg/ports"
	"github.com/aretw0/regions/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session API",
	Long: `Starts the session API over HTTP. Every session owns a state container;
sessions are kept in memory, or in Redis when redis.url is configured.
Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		stateStore, managerOpts, err := sessionBackend(cmd.Context())
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		managerOpts = append(managerOpts,
			session.WithLogger(logger),
			session.WithStoreOptions(
				regions.WithFetcher(newFetcher()),
				regions.WithLogger(logger),
				regions.WithLifecycleHooks(observability.ChainHooks(
					metrics.Hooks(),
					observability.LoggingHooks(logger),
				)),
			),
		)
		sessions := session.NewManager(stateStore, managerOpts...)

		router := chi.NewRouter()
		router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		router.Mount("/", httpAdapter.NewHandler(sessions,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithCORSOrigins(cfg.Server.CORSOrigins...),
		))

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting regions server", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests and pending saves a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var errs []error
			if err := srv.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("graceful shutdown did not complete: %w", err))
				_ = srv.Close()
			}
			if err := sessions.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("closing sessions: %w", err))
			}
			if err := stateStore.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing session store: %w", err))
			}
			if len(errs) == 0 {
				logger.Info("Regions server stopped gracefully")
			}
			return errors.Join(errs...)
		}
	},
}

// closableStore is a session store that owns resources.
type closableStore interface {
	ports.StateStore
	Close() error
}

// sessionBackend picks Redis when configured, then a session directory,
// memory otherwise.
func sessionBackend(ctx context.Context) (closableStore, []session.Option, error) {
	if cfg.Redis.URL == "" {
		if cfg.Server.SessionDir != "" {
			logger.Info("Using file session store", "dir", cfg.Server.SessionDir)
			return file.NewStore(cfg.Server.SessionDir), nil, nil
		}
		logger.Info("Using in-memory session store")
		return memoryStore{memory.NewStore()}, nil, nil
	}

	store, err := redisAdapter.New(cfg.Redis.URL,
		redisAdapter.WithPrefix(cfg.Redis.Prefix),
		redisAdapter.WithTTL(cfg.Redis.TTL),
	)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("redis unreachable: %w", err)
	}

	logger.Info("Using redis session store", "prefix", store.Prefix())
	locker := redisAdapter.NewLocker(store.Client(), store.Prefix())
	return store, []session.Option{session.WithLocker(locker)}, nil
}

type memoryStore struct {
	*memory.Store
}

func (memoryStore) Close() error { return nil }

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
}
