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
	"github.com/edbennett/daytrader/internal/domain"
	"github.com/edbennett/daytrader/internal/infrastructure/brokerage"
	"github.com/edbennett/daytrader/internal/infrastructure/logger"
	"github.com/edbennett/daytrader/internal/infrastructure/marketdata"
	"github.com/edbennett/daytrader/internal/infrastructure/model"
	"github.com/edbennett/daytrader/internal/infrastructure/objectstore"
	"github.com/edbennett/daytrader/internal/infrastructure/storage"
	"github.com/edbennett/daytrader/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("preparing to run models", zap.Bool("paper", cfg.Paper))

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	minioStore, err := objectstore.NewMinioStore(
		cfg.Credentials.MinioEndpoint,
		cfg.Credentials.MinioAccessKey,
		cfg.Credentials.MinioSecretKey,
		cfg.Credentials.MinioSecure,
		log,
	)
	if err != nil {
		log.Fatal("failed to init object store", zap.Error(err))
	}

	broker := brokerage.NewAlpacaClient(cfg.Credentials.AlpacaKey, cfg.Credentials.AlpacaSecret, cfg.Paper, log)
	provider := marketdata.NewPolygonClient(cfg.Credentials.PolygonKey, cfg.MarketData.RequestsPerSecond, log)

	ctx := context.Background()

	// Fail closed: no clock, no orders.
	clock, err := usecase.NewBrokerClock(ctx, broker, log)
	if err != nil {
		log.Fatal("calendar service unreachable, aborting before trading", zap.Error(err))
	}

	loader := func(path string) (domain.Predictor, error) { return model.Load(path) }

	features := usecase.NewFeatureService(provider, log)
	ensemble := usecase.NewEnsemble(store, minioStore, loader, cfg.Storage.ModelBucket, cfg.Storage.StagingDir, log)
	signals := usecase.NewSignalService(usecase.QualityBar{
		MinPrecision:        cfg.Strategy.MinPrecision,
		MinBalancedAccuracy: cfg.Strategy.MinBalancedAccuracy,
		MinTrainingRows:     cfg.Strategy.MinTrainingRows,
		Freshness:           cfg.Strategy.ModelFreshness(),
	}, log)
	sizer := usecase.NewSizer(cfg.Strategy.LeverageFactor, log)
	executor := usecase.NewExecutor(broker, log)
	ledger := usecase.NewLedger(store, 4, 250*time.Millisecond, log)

	session := usecase.NewSession(clock, broker, store, features, ensemble, signals, sizer, executor, ledger,
		usecase.SessionParams{
			HistoryLookbackDays: cfg.Strategy.HistoryLookbackDays,
			ModelFreshness:      cfg.Strategy.ModelFreshness(),
			SettleDelay:         cfg.Strategy.SettleDelay(),
			Monitor: usecase.MonitorParams{
				TakeProfitPct: cfg.Strategy.TakeProfitPct,
				StopLossPct:   cfg.Strategy.StopLossPct,
				PollInterval:  cfg.Monitor.PollInterval(),
				GuardInterval: cfg.Monitor.GuardInterval(),
				Broker:        "Alpaca",
				Paper:         cfg.Paper,
			},
		}, log)

	if err := session.Run(ctx); err != nil {
		log.Fatal("session failed", zap.Error(err))
	}

	log.Info("completed running models")
}
