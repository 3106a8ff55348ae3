package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/covault/covault/api/sealhandler"
	"github.com/covault/covault/api/secretshandler"
	"github.com/covault/covault/cmd/flags"
	"github.com/covault/covault/common"
	"github.com/covault/covault/httpserver"
	"github.com/covault/covault/interfaces"
	"github.com/covault/covault/metrics"
	"github.com/covault/covault/seal"
	"github.com/covault/covault/secrets"
	"github.com/covault/covault/storage"
)

func main() {
	app := &cli.App{
		Name:  "vaultd",
		Usage: "Serve the covault secrets vault",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.StorageFlag,
			flags.AutoSealSecondsFlag,
		}, flags.CommonFlags...),
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
	storageURIs := cCtx.StringSlice(flags.StorageFlag.Name)
	autoSealSeconds := cCtx.Int64(flags.AutoSealSecondsFlag.Name)

	logger := flags.SetupLogger(cCtx)

	// Assemble the storage layer.
	factory := storage.NewStorageBackendFactory(logger)
	locations := make([]interfaces.StorageBackendLocation, 0, len(storageURIs))
	for _, uri := range storageURIs {
		locations = append(locations, interfaces.StorageBackendLocation(uri))
	}
	backend, err := factory.CreateMultiBackend(locations)
	if err != nil {
		logger.Error("Failed to create storage backend", "err", err)
		return err
	}

	m := metrics.New(common.PackageName)

	autoSealAfter := time.Duration(autoSealSeconds) * time.Second
	sealCfg := seal.Config{
		AutoSealAfter: autoSealAfter,
		OnAutoSeal: func() {
			m.VaultSealed.Set(1)
			m.SealTransitions.WithLabelValues("inactivity").Inc()
		},
		Log: logger,
	}

	// A persisted topology means this vault was initialized before; it
	// comes back sealed and must be unsealed with the original shares.
	sealSvc := seal.New(sealCfg)
	topo, found, err := secrets.LoadTopology(context.Background(), backend)
	if err != nil {
		logger.Warn("Failed to load vault topology", "err", err)
	} else if found && topo.Initialized {
		sealSvc, err = seal.NewRecovered(sealCfg, topo.TotalShares, topo.Threshold)
		if err != nil {
			logger.Error("Persisted vault topology is invalid", "err", err)
			return err
		}
		logger.Info("Restored vault topology, vault is sealed",
			"threshold", topo.Threshold,
			"totalShares", topo.TotalShares)
	}
	defer sealSvc.Close()

	store := secrets.NewStore(sealSvc, backend, logger)

	srv, err := httpserver.New(
		flags.ConfigureServer(cCtx, logger, listenAddr),
		sealhandler.NewHandler(sealhandler.Config{
			Seal:    sealSvc,
			Backend: backend,
			Metrics: m,
			Log:     logger,
		}),
		secretshandler.NewHandler(store, m, logger),
		m,
	)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	srv.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	srv.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}
