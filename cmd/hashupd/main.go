package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"hashupcore/config"
	"hashupcore/core"
	"hashupcore/observability"
	"hashupcore/observability/logging"
	"hashupcore/rpc"
	"hashupcore/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.Setup("hashupd", cfg.Environment)

	owner, err := cfg.StoreOwnerAddress()
	if err != nil {
		logger.Error("invalid store owner", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	node, err := core.NewNode(db, owner, logger, observability.NewLogEmitter(logger))
	if err != nil {
		logger.Error("failed to initialise node", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir))

	server := rpc.NewServer(node, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.RPCAddress)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("rpc server stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}
}
