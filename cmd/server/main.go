package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"tasklist/internal/api"
	"tasklist/internal/config"
	"tasklist/internal/instance"
	"tasklist/internal/logging"
	"tasklist/internal/metrics"
	"tasklist/pkg/task"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// run opens every configured list and serves it until SIGINT or SIGTERM.
// Stores opened before a failure are closed on return.
func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var servers []*http.Server
	for _, in := range cfg.Instances {
		opened, err := instance.Open(ctx, in)
		if err != nil {
			return err
		}
		defer opened.Close()

		// Create the backing document up front.
		coll := task.NewCollection(opened.Store)
		if _, err := coll.All(ctx); err != nil {
			logger.Warn("initial load failed", "list", in.Name, "err", err)
		}

		opts := api.Options{
			Name:   in.Name,
			Layout: opened.Layout,
			Base:   in.Base,
			Logger: logger,
		}
		if cfg.Metrics {
			opts.Metrics = metrics.New(in.Name)
		}
		servers = append(servers, &http.Server{
			Addr:              in.Addr,
			Handler:           api.New(coll, opts),
			ReadHeaderTimeout: 10 * time.Second,
		})
		logger.Info("list ready", "list", in.Name, "layout", in.Layout, "backend", in.Backend, "addr", in.Addr, "base", in.Base)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
