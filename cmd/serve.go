package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/msnfinder/msnfinder/pkg/api"
	"github.com/msnfinder/msnfinder/pkg/config"
	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/log"
	"github.com/msnfinder/msnfinder/pkg/realtime"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Listen address (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			return serve(ctx, c.String("config"), c.String("listen"))
		},
	}
}

// serve runs the API server until interrupted. The finder and crawler are
// rebuilt whenever the config file changes on disk or SIGHUP arrives.
func serve(ctx context.Context, configPath, listenOverride string) error {
	logger := log.ForService("serve")

	capture := log.NewCapture()
	log.SetOutput(capture.Tee(os.Stderr))
	defer log.SetOutput(os.Stderr)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	listenAddr := cfg.ListenAddr
	if listenOverride != "" {
		listenAddr = listenOverride
	}

	registry := core.GetGlobalRegistry()
	defer func() {
		if err := registry.Close(); err != nil {
			fmt.Printf("Warning: failed to close registry: %v\n", err)
		}
	}()

	f, err := buildFinder(registry, cfg)
	if err != nil {
		return fmt.Errorf("building finder: %w", err)
	}

	cr, err := buildCrawler(cfg)
	if err != nil {
		return fmt.Errorf("building crawler: %w", err)
	}

	store, err := openLinkStore(cfg)
	if err != nil {
		return fmt.Errorf("opening link store: %w", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				fmt.Printf("Warning: failed to close link store: %v\n", err)
			}
		}()
	}

	hub := realtime.NewHub(32)
	server := api.NewServer(f, store, hub, capture, cr)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           api.CorsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on %s", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal handling - includes SIGHUP for reload
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Set up filesystem watcher for the config file; editors often replace
	// the file atomically, so rename/remove events need a re-add.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
	}

	reload := func() {
		newCfg, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Errorf("reloading config: %v", err)
			return
		}
		if f.Running() {
			logger.Warnf("config changed while a run is active; new settings apply to the next run")
		}
		// Rebuilding finder-facing settings in place is not possible; empty
		// the registry and recreate from the new config, so instances
		// dropped or renamed in the new file do not linger.
		if err := clearBackends(registry); err != nil {
			logger.Warnf("clearing backends: %v", err)
		}
		newFinder, err := buildFinder(registry, newCfg)
		if err != nil {
			logger.Errorf("rebuilding finder: %v", err)
			return
		}
		newCrawler, err := buildCrawler(newCfg)
		if err != nil {
			logger.Errorf("rebuilding crawler: %v", err)
			return
		}
		server.Swap(newFinder, newCrawler)
		cfg = newCfg
		logger.Infof("configuration reloaded")
	}

	var watchEvents chan fsnotify.Event
	var watchErrors chan error
	if watcher != nil {
		watchEvents = watcher.Events
		watchErrors = watcher.Errors
	}

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("API server: %w", err)

		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Infof("received SIGHUP, reloading configuration")
				reload()
			case syscall.SIGINT, syscall.SIGTERM:
				logger.Infof("shutting down")
				f.Stop()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}

		case <-ctx.Done():
			f.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)

		case event, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				logger.Infof("config file changed (%s), reloading", event.Op)

				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					// Small delay so the replacement file is fully written.
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						logger.Warnf("config file removed and not replaced, skipping reload")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						logger.Warnf("failed to re-add config file to watcher: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}
				reload()
			}

		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			logger.Warnf("config file watcher error: %v", err)
		}
	}
}
