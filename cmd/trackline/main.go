package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailscale.com/tsnet"

	"github.com/claude/trackline/internal/config"
	"github.com/claude/trackline/internal/engine"
	"github.com/claude/trackline/internal/server"
	"github.com/claude/trackline/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// tickInterval drives timer re-derivation. The engine is tick-tolerant, so
// the exact value only affects display latency.
const tickInterval = 100 * time.Millisecond

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres driver)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Trackline starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var store storage.Store
	switch cfg.Storage.Driver {
	case "postgres":
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}
		store, err = storage.OpenPostgres(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			log.Error("failed to open state db", "path", cfg.Storage.Path, "error", err)
			os.Exit(1)
		}
	}
	defer store.Close()
	log.Info("state store ready", "driver", cfg.Storage.Driver)

	eng, err := engine.New(ctx, store, log)
	if err != nil {
		log.Error("failed to load state", "error", err)
		os.Exit(1)
	}

	// Timer loop. Ticks are pure re-derivation, so a missed or doubled tick
	// never corrupts state.
	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	go func() {
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case now := <-t.C:
				if err := eng.Tick(tickCtx, now); err != nil {
					log.Warn("tick persist failed", "error", err)
				}
			}
		}
	}()

	srv := server.New(eng, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "local (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	stopTicks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
