package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	pg "github.com/solmarket/marketplace-server/pkg/database/postgres"
	async_indexer "github.com/solmarket/marketplace-server/pkg/market/async/indexer"
	"github.com/solmarket/marketplace-server/pkg/market/config"
	market_data "github.com/solmarket/marketplace-server/pkg/market/data"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	market_server "github.com/solmarket/marketplace-server/pkg/market/server"
	"github.com/solmarket/marketplace-server/pkg/solana"
)

func main() {
	log := logrus.StandardLogger().WithField("type", "main")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	db, err := pg.New(&pg.Config{
		User:               cfg.Db.User,
		Password:           cfg.Db.Password,
		Host:               cfg.Db.Host,
		Port:               cfg.Db.Port,
		DbName:             cfg.Db.Name,
		MaxOpenConnections: cfg.Db.MaxOpenConnections,
		MaxIdleConnections: cfg.Db.MaxIdleConnections,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	data := market_data.NewProvider(db)
	client := solana.New(cfg.SolanaRpcUrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	indexer := async_indexer.New(data, client)
	go func() {
		if err := indexer.Start(ctx, cfg.IndexInterval); err != nil && err != context.Canceled {
			log.WithError(err).Error("indexer stopped unexpectedly")
		}
	}()

	cronJob := cron.New(cron.WithLocation(time.Local))
	_, err = cronJob.AddFunc(cfg.HeartbeatCronSchedule, func() {
		active, err := data.CountListingsByState(ctx, listing.StateActive)
		if err != nil {
			log.WithError(err).Warn("failed to count active listings")
			return
		}
		sales, err := data.CountSales(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to count sales")
			return
		}

		log.WithFields(logrus.Fields{
			"active_listings": active,
			"total_sales":     sales,
		}).Info("heartbeat")
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize heartbeat cron")
	}
	cronJob.Start()
	defer cronJob.Stop()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: market_server.NewServer(data).Router(),
	}

	go func() {
		log.WithField("address", cfg.ListenAddress).Info("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http server")
	}
}
