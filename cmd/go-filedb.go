// Command go-filedb serves a directory-backed document store over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/adfharrison1/go-filedb/pkg/codec"
	"github.com/adfharrison1/go-filedb/pkg/config"
	"github.com/adfharrison1/go-filedb/pkg/server"
	"github.com/adfharrison1/go-filedb/pkg/storage"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "go-filedb: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	defaults := config.Default()
	var (
		configPath      = flag.String("config", "go-filedb.yaml", "YAML configuration file (optional)")
		port            = flag.String("port", defaults.Port, "Server port")
		dataDir         = flag.String("data-dir", defaults.DataDir, "Root directory holding one subdirectory per collection")
		codecName       = flag.String("codec", defaults.Codec, "Document encoding: json, msgpack, json+lz4 or msgpack+lz4")
		logLevel        = flag.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
		rateLimit       = flag.Float64("rate-limit", 0, "Global requests per second; 0 disables limiting")
		rateBurst       = flag.Int("rate-burst", 0, "Rate limiter burst size")
		shutdownTimeout = flag.Duration("shutdown-timeout", defaults.ShutdownTimeout, "Grace period for in-flight requests on shutdown")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ngo-filedb stores each document as one file, named by its id, in a directory per collection.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                    # Start with defaults\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090 -data-dir /tmp/filedb  # Custom port and data directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -codec msgpack+lz4                # Compact on-disk encoding\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFlags override values from the configuration file.\n")
	}
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	cfg, err := config.Load(*configPath, !set["config"])
	if err != nil {
		return err
	}
	if set["port"] {
		cfg.Port = *port
	}
	if set["data-dir"] {
		cfg.DataDir = *dataDir
	}
	if set["codec"] {
		cfg.Codec = *codecName
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["rate-limit"] {
		cfg.RateLimit.RequestsPerSecond = *rateLimit
	}
	if set["rate-burst"] {
		cfg.RateLimit.Burst = *rateBurst
	}
	if set["shutdown-timeout"] {
		cfg.ShutdownTimeout = *shutdownTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return err
	}
	engine, err := storage.NewEngine(cfg.DataDir, storage.WithCodec(c), storage.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("using data directory", "dir", engine.Db().Root(), "codec", c.Name())

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, server.WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
		logger.Info("rate limit enabled", "rps", cfg.RateLimit.RequestsPerSecond, "burst", cfg.RateLimit.Burst)
	}
	srv := server.NewServer(engine, opts...)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting go-filedb server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}
