package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/uniqline/pkg/api"
)

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	debug := fs.Bool("debug", false, "debug logging")
	fs.Parse(args)

	cfg, found, err := loadConfig(*cfgPath)
	logger := newLogger(os.Stderr, logLevel(*debug || cfg.Debug, slog.LevelInfo))
	if err != nil {
		logger.Error("load config", "error", err)
		return exitUsage
	}
	if *cfgPath != "" && !found {
		logger.Info("no config file, using defaults", "path", *cfgPath)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(api.NewEndpoints(logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("uniqline listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		logger.Error("server error", "error", err)
		return exitError
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		return exitError
	}
	return exitOK
}

// cmdMCP serves the tools over stdio. Logs go to stderr; stdout carries
// the protocol.
func cmdMCP(args []string) int {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	debug := fs.Bool("debug", false, "debug logging")
	fs.Parse(args)

	logger := newLogger(os.Stderr, logLevel(*debug, slog.LevelInfo))

	srv := server.NewMCPServer("uniqline", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, api.NewEndpoints(logger))

	logger.Info("mcp server on stdio")
	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp server", "error", err)
		return exitError
	}
	return exitOK
}
