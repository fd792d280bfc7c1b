package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mergebox/backend/api"
	"mergebox/backend/config"
	"mergebox/backend/logging"
	"mergebox/backend/persist"
	"mergebox/backend/service/merge"
	"mergebox/backend/service/subscription"
	"mergebox/backend/tasks"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := persist.NewDocumentStore(cfg.Document.Path)
	doc, err := store.Load()
	if err != nil {
		logger.Fatal("load routing document failed", zap.Error(err))
	}
	logger.Info("routing document loaded",
		zap.String("path", cfg.Document.Path),
		zap.Int("outbounds", len(doc.Outbounds)))

	runner := merge.NewRunner(doc, subscription.NewFetcher(), store, cfg.Hops, cfg.Chain, logger)

	scheduler := tasks.NewScheduler(runner, cfg.Sync.Interval(), logger)
	scheduler.Start(ctx)

	router := api.NewRouter(runner, logger)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}
