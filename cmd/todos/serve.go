package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/victorarias/todos/internal/server"
	"github.com/victorarias/todos/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, "server")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg, cfg.Session.MigrateOnStart)
		if err != nil {
			return err
		}
		defer store.Close()

		mgr := session.NewManager(store, session.Options{
			CookieName: cfg.Session.CookieName,
			Secret:     []byte(cfg.Session.Secret),
			MaxAge:     cfg.Session.MaxAge(),
			Secure:     cfg.Session.SecureCookie,
		}, newLogger(cfg, "session"))

		srv, err := server.NewServer(mgr, logger, server.Options{
			PruneInterval: cfg.Session.PruneInterval(),
		})
		if err != nil {
			return err
		}

		addr := ":" + strconv.Itoa(cfg.Server.Port)
		logger.Info("starting", "version", Version, "commit", Commit, "built", BuildTime)
		logger.Info("listening", "addr", addr, "store", cfg.Session.Store)
		if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply session store migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, "migrate")
		if cfg.Session.Store == session.StoreMemory {
			logger.Info("memory store has no schema, nothing to migrate")
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := openStore(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("migrations applied", "store", cfg.Session.Store)
		return nil
	},
}
