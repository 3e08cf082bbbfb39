package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/access"
	"github.com/kronenthaler/simple-http-file-server/internal/adapters/http"
	"github.com/kronenthaler/simple-http-file-server/internal/adapters/storage"
	"github.com/kronenthaler/simple-http-file-server/internal/config"
	"github.com/kronenthaler/simple-http-file-server/internal/logging"
)

func main() {
	cmd, err := newRootCmd(run)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command line; serve runs once flags and the port
// argument are resolved.
func newRootCmd(serve func(context.Context, config.Config) error) (*cobra.Command, error) {
	cfg, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Storage == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Storage = wd
		}
	}

	cmd := &cobra.Command{
		Use:   "server [flags] PORT",
		Short: "Serve a directory tree over HTTP for build caches",
		Long: `server exposes a storage directory over HTTP: GET and HEAD read files
and list directories as JSON, PUT stores files and DELETE removes them.
An optional access config restricts paths per user with Basic authentication.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", args[0], err)
			}
			cfg.Port = port
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "Address to bind to")
	flags.IntVar(&cfg.Threads, "threads", cfg.Threads, "The number of requests served concurrently")
	flags.StringVar(&cfg.Storage, "storage", cfg.Storage, "Path where the cache files should be stored")
	flags.StringVar(&cfg.AccessConfig, "access_config", cfg.AccessConfig, "Path to access config")
	flags.StringVar(&cfg.LogPath, "log", cfg.LogPath, "Path to log file")
	flags.BoolVar(&cfg.LogHeaders, "log_headers", cfg.LogHeaders, "If set logs headers of all requests")
	flags.BoolVar(&cfg.FlushLog, "should_flush_log", cfg.FlushLog, "If set, flushes log to disk after each entry")
	flags.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flags.IntVar(&cfg.BodyLimit, "body_limit", cfg.BodyLimit, "Maximum size of an uploaded file in bytes")
	flags.StringVar(&cfg.Realm, "realm", cfg.Realm, "Basic authentication realm")

	return cmd, nil
}

func run(ctx context.Context, cfg config.Config) error {
	// 1. Initialize logging; everything below writes through the queue
	logger, queue, err := logging.Setup(logging.Options{
		Path:      cfg.LogPath,
		FlushEach: cfg.FlushLog,
		Level:     logging.LevelFromString(cfg.LogLevel),
	})
	if err != nil {
		return err
	}
	defer queue.Close()

	// 2. Initialize Adapters (Infrastructure)
	logger.Info("hosting server from: " + cfg.Storage)
	store, err := storage.NewOSAdapter(cfg.Storage)
	if err != nil {
		logger.Error("cannot serve storage", "storage", cfg.Storage, "err", err)
		return err
	}

	opts := http.Options{
		Storage:    store,
		Realm:      cfg.Realm,
		Logger:     logger,
		AccessLog:  queue,
		LogHeaders: cfg.LogHeaders,
		Threads:    cfg.Threads,
		BodyLimit:  cfg.BodyLimit,
	}
	if cfg.AccessConfig != "" {
		if _, err := os.Stat(cfg.AccessConfig); err != nil {
			logger.Error("No such file: " + cfg.AccessConfig)
			return err
		}
		logger.Info("Setting up access restrictions", "config", cfg.AccessConfig)
		auth, err := access.Load(cfg.AccessConfig)
		if err != nil {
			logger.Error("Error reading config file", "config", cfg.AccessConfig, "err", err)
			return err
		}
		opts.Authorizer = auth
	}

	// 3. Setup Framework (Fiber)
	app := http.NewApp(opts)

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Addr(), "err", err)
		return err
	}

	// 4. Start Server
	logger.Info(fmt.Sprintf("listening on %s:%d using %d threads", cfg.Host, cfg.Port, cfg.Threads))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Listener(ln)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", "err", err)
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down", "timeout", time.Duration(cfg.ShutdownTimeoutS)*time.Second)
	}

	if err := app.ShutdownWithTimeout(time.Duration(cfg.ShutdownTimeoutS) * time.Second); err != nil {
		logger.Error("shutdown failed", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
