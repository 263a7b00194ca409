package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/netviz/netviz/pkg/types"
	"github.com/netviz/netviz/server/internal/api"
	"github.com/netviz/netviz/server/internal/auth"
	"github.com/netviz/netviz/server/internal/cache"
	"github.com/netviz/netviz/server/internal/config"
	"github.com/netviz/netviz/server/internal/fetch"
	"github.com/netviz/netviz/server/internal/metrics"
	"github.com/netviz/netviz/server/internal/notify"
	"github.com/netviz/netviz/server/internal/refresh"
	"github.com/netviz/netviz/server/internal/store"
	"github.com/netviz/netviz/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the web UI static files from this directory; leave empty to disable")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "config", *configPath, "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	slog.Info("netviz starting",
		"config", *configPath,
		"bind_address", cfg.Server.BindAddress,
		"schedule", cfg.Refresh.Schedule,
		"dataset", cfg.Fetch.DatasetPath(),
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *uiDir); err != nil {
		slog.Error("netviz stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("netviz stopped")
}

func run(ctx context.Context, cfg *config.Config, uiDir string) error {
	st := store.New(nil)
	alertEngine := notify.New(cfg.Notify)
	recorder := metrics.New(st)
	hub := ws.New(st, cfg.Server.StreamInterval)

	trig := refresh.New(st, fetch.New(cfg.Fetch), cfg.Fetch.DatasetPath(), recorder, alertEngine, hub)

	// Without a first snapshot there is nothing to serve.
	if err := trig.Bootstrap(ctx); err != nil {
		return err
	}

	if err := trig.Start(ctx, cfg.Refresh.Schedule); err != nil {
		if !errors.Is(err, types.ErrConfig) {
			return err
		}
		slog.Warn("invalid refresh schedule, automatic refresh disabled", "err", err)
	}
	defer trig.Stop()

	h := api.New(st, api.Options{
		Refresher: trig,
		Alerts:    alertEngine,
		Admin: auth.APIKey(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
		),
	})
	h.Handle("/metrics", recorder)
	h.Handle("/ws/stream", hub)
	if uiDir != "" {
		h.Handle("/*", spa(uiDir))
		slog.Info("serving UI static files", "dir", uiDir)
	}

	srv := &http.Server{
		Addr:              cfg.Server.BindAddress,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if cfg.Cache.Watch {
		path := cfg.Fetch.DatasetPath()
		g.Go(func() error {
			err := cache.Watch(gctx, path, cache.DefaultSettle, func() {
				if _, err := trig.Reload(gctx); err != nil && !errors.Is(err, refresh.ErrBusy) {
					slog.Warn("cache reload failed", "path", path, "err", err)
				}
			})
			if err != nil {
				// Serving continues; only external rewrites go unnoticed.
				slog.Warn("cache watcher unavailable", "path", path, "err", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("netviz shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// spa serves files from dir and falls back to index.html for unknown paths.
func spa(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}
