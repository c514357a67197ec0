package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yashhsm/morpho-on-solana/internal/client"
	"github.com/yashhsm/morpho-on-solana/internal/config"
	"github.com/yashhsm/morpho-on-solana/internal/gateway"
	"github.com/yashhsm/morpho-on-solana/internal/logging"
	"github.com/yashhsm/morpho-on-solana/internal/readmodel"
	"github.com/yashhsm/morpho-on-solana/internal/wallet"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	bootstrapLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.LoadConsoleConfig()
	if err != nil {
		bootstrapLogger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger, closeLogger, err := logging.New("console-server", cfg.Log)
	if err != nil {
		bootstrapLogger.Error("failed to initialize logger", "err", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := closeLogger(); closeErr != nil {
			bootstrapLogger.Error("failed to close logger", "err", closeErr)
		}
	}()

	if source, sourceErr := config.CurrentConfigSource(); sourceErr == nil {
		logger.Info("configuration loaded", "phase", source.Phase, "path", source.Path, "loaded", source.Loaded)
	}

	// Without a keypair the console still serves reads; action routes
	// are disabled.
	var actions gateway.Actions
	var reader *client.Client
	if cfg.Chain.KeypairPath != "" {
		keypair, keyErr := wallet.LoadKeypair(cfg.Chain.KeypairPath)
		if keyErr != nil {
			logger.Error("failed to load keypair", "path", cfg.Chain.KeypairPath, "err", keyErr)
			os.Exit(1)
		}
		signing := client.NewSigning(cfg.Chain, keypair, logger)
		actions = signing
		reader = signing.Client
		logger.Info("signing wallet loaded", "pubkey", keypair.PublicKey())
	} else {
		reader = client.New(cfg.Chain, logger)
		logger.Info("no keypair configured, running read-only")
	}

	readModel := readmodel.New(reader, cfg.ReadModel, logger)
	gatewaySvc := gateway.New(cfg.Gateway, readModel, actions, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if runErr := readModel.Run(ctx); runErr != nil {
			logger.Error("read model exited with error", "err", runErr)
		}
	}()

	if err := gatewaySvc.Run(ctx); err != nil {
		logger.Error("console-server exited with error", "err", err)
		os.Exit(1)
	}
}
