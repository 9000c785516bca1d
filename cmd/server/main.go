package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thereceipt/label-engine/internal/api"
	"github.com/thereceipt/label-engine/internal/barcodeid"
	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/internal/config"
	"github.com/thereceipt/label-engine/internal/export"
	"github.com/thereceipt/label-engine/internal/logging"
	"github.com/thereceipt/label-engine/internal/notify"
	"github.com/thereceipt/label-engine/internal/printer"
	"github.com/thereceipt/label-engine/internal/raster"
	"github.com/thereceipt/label-engine/internal/registry"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatalf("label-engine: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogFormat)
	logger.Info("label engine starting", "version", Version, "env", cfg.AppEnv)

	products, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer products.Close()

	printers, err := registry.New(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("failed to load printer registry: %w", err)
	}

	hub := api.NewHub(logger)
	pipeline := export.New(
		raster.NewGG(cfg.PixelsPerMM),
		notify.Multi{hub, notify.Slog{Logger: logger}},
		logger,
		cfg.Export(),
	)

	pool := printer.NewPool(nil)
	defer pool.DisconnectAll()

	queue := printer.NewQueue(pool, printers, logger, printer.QueueOptions{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		OnUpdate:   hub.BroadcastJob,
	})
	defer queue.Stop()

	if ports := printer.SerialPorts(); len(ports) > 0 {
		logger.Info("serial ports available", "ports", ports)
	}

	server := api.NewServer(api.Deps{
		Catalog:  products,
		Pipeline: pipeline,
		Codec:    barcodeid.NewRandom(),
		Registry: printers,
		Queue:    queue,
		Hub:      hub,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("api server listening", "addr", cfg.Addr)
	if err := server.Run(ctx, cfg.Addr, cfg.ShutdownTimeout); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}
