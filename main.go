package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"syscall"

	redis "github.com/redis/go-redis/v9"

	"copyTradeEngine/config"
	"copyTradeEngine/internal/adapters/binanceclient"
	"copyTradeEngine/internal/adapters/kafkabus"
	"copyTradeEngine/internal/adapters/logger"
	"copyTradeEngine/internal/adapters/memstore"
	"copyTradeEngine/internal/adapters/messenger"
	"copyTradeEngine/internal/adapters/redisstore"
	"copyTradeEngine/internal/adapters/riskscore"
	"copyTradeEngine/internal/adapters/sqlite"
	"copyTradeEngine/internal/app"
	"copyTradeEngine/internal/confirm"
	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/executor"
	"copyTradeEngine/internal/metrics"
	"copyTradeEngine/internal/ports"
	"copyTradeEngine/internal/ratelimit"
	"copyTradeEngine/internal/requestbuilder"
	"copyTradeEngine/internal/risk"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger.WithComponent("sqlite"),
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Registry and Inflight Stores (Redis when configured)
	var registry ports.FollowerRegistry
	var inflight ports.InflightStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to connect to Redis")
			log.Fatalf("FATAL: Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		registry = redisstore.NewFollowerRegistry(redisClient, "")
		inflight = redisstore.NewInflightStore(redisClient, "")
		appLogger.Info(context.Background(), "Redis stores initialized", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		registry = memstore.NewFollowerRegistry()
		inflight = memstore.NewInflightStore()
		appLogger.Info(context.Background(), "In-memory stores initialized")
	}

	// 5. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger.WithComponent("binance"),
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	// 6. Initialize Pipeline Components
	msgr := messenger.NewLogMessenger(appLogger)

	signer, err := domain.NewSigner(cfg.SignatureKey)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize request signer")
		log.Fatalf("FATAL: Failed to initialize request signer: %v", err)
	}

	builder, err := requestbuilder.New(signer, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize request builder")
		log.Fatalf("FATAL: Failed to initialize request builder: %v", err)
	}

	scorer := riskscore.New(riskscore.Config{Logger: appLogger})
	gate, err := risk.NewGate(scorer, msgr, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize risk gate")
		log.Fatalf("FATAL: Failed to initialize risk gate: %v", err)
	}

	limiter := ratelimit.NewSlidingWindow(cfg.RateLimitMax, cfg.RateLimitWindow)

	gateway, err := confirm.NewGateway(msgr, cfg.ConfirmationTimeout, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize confirmation gateway")
		log.Fatalf("FATAL: Failed to initialize confirmation gateway: %v", err)
	}

	coordinator, err := executor.New(executor.Config{MaxConcurrent: cfg.MaxConcurrentExecutions},
		inflight, binanceClient, binanceClient, repo, registry, msgr, gateway, signer, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize execution coordinator")
		log.Fatalf("FATAL: Failed to initialize execution coordinator: %v", err)
	}

	aggregator := metrics.NewAggregator(cfg.MetricsAlpha)

	// 7. Initialize Kafka Publisher (optional)
	var summaries ports.SummaryPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkabus.NewSummaryPublisher(cfg.KafkaBrokers, cfg.KafkaTopicSummaries, appLogger.WithComponent("kafka"))
		defer publisher.Close()
		summaries = publisher
		appLogger.Info(context.Background(), "Kafka summary publisher initialized", map[string]interface{}{"topic": cfg.KafkaTopicSummaries})
	}

	// 8. Initialize Application Service
	service, err := app.NewCopyTradingService(
		cfg,
		appLogger,
		registry,
		builder,
		gate,
		limiter,
		coordinator,
		gateway,
		aggregator,
		repo, // Pass the concrete implementation, service expects the interfaces
		repo,
		msgr,
		summaries,
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize copy trading service")
		log.Fatalf("FATAL: Failed to initialize copy trading service: %v", err)
	}
	appLogger.Info(context.Background(), "Copy trading service initialized")

	// 9. Start Supervised Jobs
	if err := service.StartJobs(ctx); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to start maintenance jobs")
		log.Fatalf("FATAL: Failed to start maintenance jobs: %v", err)
	}

	// 10. Consume Leader Trades (when Kafka is configured)
	if len(cfg.KafkaBrokers) > 0 {
		consumer := kafkabus.NewTradeConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopicTrades, appLogger.WithComponent("kafka"))
		defer consumer.Close()
		appLogger.Info(context.Background(), "Consuming leader trades", map[string]interface{}{"topic": cfg.KafkaTopicTrades})

		err = consumer.Consume(ctx, func(ctx context.Context, trade *domain.LeaderTrade) error {
			_, err := service.ProcessLeaderTrade(ctx, trade)
			return err
		})
		if err != nil && ctx.Err() == nil {
			appLogger.Error(context.Background(), err, "Leader trade consumer exited with error")
		}
	} else {
		appLogger.Info(context.Background(), "No Kafka brokers configured; waiting for shutdown signal")
		<-ctx.Done()
	}

	stop()
	service.WaitJobs()
	appLogger.Info(context.Background(), "Application finished gracefully.")
}
