package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/config"
	"github.com/edbennett/daytrader/internal/infrastructure/brokerage"
	"github.com/edbennett/daytrader/internal/infrastructure/logger"
	"github.com/edbennett/daytrader/internal/infrastructure/marketdata"
	"github.com/edbennett/daytrader/internal/infrastructure/storage"
	"github.com/edbennett/daytrader/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	days := flag.Int("days", 60, "days of daily bars to backfill")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	broker := brokerage.NewAlpacaClient(cfg.Credentials.AlpacaKey, cfg.Credentials.AlpacaSecret, cfg.Paper, log)
	provider := marketdata.NewPolygonClient(cfg.Credentials.PolygonKey, cfg.MarketData.RequestsPerSecond, log)

	ctx := context.Background()

	universe, err := usecase.LoadUniverse(ctx, broker, log)
	if err != nil {
		log.Fatal("failed to load universe", zap.Error(err))
	}

	symbols := make([]string, 0, len(universe.Tradable))
	for symbol := range universe.Tradable {
		symbols = append(symbols, symbol)
	}

	features := usecase.NewFeatureService(provider, log)
	backfill := usecase.NewBackfillService(features, store, cfg.Backfill.Concurrency, log)

	to := time.Now()
	from := to.AddDate(0, 0, -*days)
	log.Info("starting backfill",
		zap.Int("symbols", len(symbols)),
		zap.Time("from", from),
		zap.Time("to", to))

	loaded := backfill.Run(ctx, symbols, from, to)
	if loaded == 0 {
		log.Fatal("backfill loaded nothing")
	}
}
