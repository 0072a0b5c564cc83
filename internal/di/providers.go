package di

import (
	"context"
	"fmt"
	"time"

	"TraderMind/internal/domain/repository"
	domsvc "TraderMind/internal/domain/service"
	mid "TraderMind/internal/middleware"
	internalrepo "TraderMind/internal/repository"
	icache "TraderMind/internal/service/cache"
	"TraderMind/internal/service/stream"
	"TraderMind/internal/services/ai"
	"TraderMind/internal/services/audit"
	"TraderMind/internal/services/risk"
	"TraderMind/internal/services/session"
	"TraderMind/internal/usecase"
	pkgch "TraderMind/pkg/clickhouse"
	"TraderMind/pkg/config"
	"TraderMind/pkg/crypto"
	pkgkafka "TraderMind/pkg/kafka"
	"TraderMind/pkg/logger"
	"TraderMind/pkg/metrics"
	"TraderMind/pkg/queue"
	"TraderMind/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client. Returns nil when
// ClickHouse is disabled; the pipeline degrades to no persistence.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTradeStore creates the ClickHouse trade store and its schema.
func ProvideTradeStore(chClient *pkgch.Client, lgr *logger.Logger, cfg *config.Config) (repository.TradeStore, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseTradeStore(chClient, lgr, cfg.ClickHouse.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = chClient.Close()
		return nil, fmt.Errorf("trade store schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer. Nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideShadowRecorder publishes inference outputs to the shadow topic.
func ProvideShadowRecorder(producer *pkgkafka.Producer, cfg *config.Config, lgr *logger.Logger) repository.ShadowRecorder {
	if producer == nil || cfg.Kafka.ShadowTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaShadowRecorder(producer, cfg.Kafka.ShadowTopic, lgr)
}

// ProvideKafkaConsumer creates a Kafka consumer for the ticks topic.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.TicksTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates the shared Redis client. Nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideExecutionQueue creates the Redis-backed execution handoff.
func ProvideExecutionQueue(client *redis.Client, lgr *logger.Logger) repository.ExecutionQueue {
	if client == nil {
		return nil
	}
	q := queue.NewRedisPublisher(lgr, client)
	return internalrepo.NewRedisExecutionQueue(q)
}

// ProvideReplayCache creates the replay response cache. Falls back to
// in-process TTL cache when Redis is disabled.
func ProvideReplayCache(client *redis.Client, cfg *config.Config) icache.BytesCache {
	if client == nil {
		return icache.NewTTLCache()
	}
	return icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideTickStream creates the broker WebSocket stream. A sealed API
// token is unsealed with the configured key before use.
func ProvideTickStream(cfg *config.Config) (repository.TickStream, error) {
	var apiToken string
	if cfg.Broker.APITokenSealed != "" {
		sealer, err := crypto.NewSealer(cfg.Crypto.KeyHex)
		if err != nil {
			return nil, fmt.Errorf("crypto key: %w", err)
		}
		apiToken, err = sealer.Decrypt(cfg.Broker.APITokenSealed)
		if err != nil {
			return nil, fmt.Errorf("unseal api token: %w", err)
		}
	}
	return stream.New(
		cfg.Broker.AppID,
		apiToken,
		cfg.Broker.WebSocketURL,
		cfg.Broker.Markets,
		cfg.Broker.ReconnectDelay,
		cfg.Broker.PingInterval,
	), nil
}

// ProvideInference creates the bounded inference gateway.
func ProvideInference(cfg *config.Config, lgr *logger.Logger) domsvc.Inference {
	return ai.NewGateway(cfg.Inference.BaseURL, lgr)
}

// ProvideSessionRegistry creates the session registry.
func ProvideSessionRegistry() *session.Registry {
	return session.NewRegistry()
}

// ProvideRiskValidator creates the risk validator with the default rule
// hierarchy.
func ProvideRiskValidator() *risk.Validator {
	return risk.NewValidator()
}

// ProvideRiskState creates per-user risk accounting from configured limits.
func ProvideRiskState(cfg *config.Config) *usecase.RiskState {
	return usecase.NewRiskState(usecase.UserLimits{
		MaxDrawdown:     cfg.Risk.MaxDrawdown,
		MaxDailyLoss:    cfg.Risk.MaxDailyLoss,
		MaxTradesPerDay: cfg.Risk.MaxTradesPerDay,
	})
}

// ProvideDecisionPipeline assembles the per-tick decision chain.
func ProvideDecisionPipeline(
	inference domsvc.Inference,
	validator *risk.Validator,
	sessions *session.Registry,
	riskState *usecase.RiskState,
	store repository.TradeStore,
	shadow repository.ShadowRecorder,
	execq repository.ExecutionQueue,
	m repository.Metrics,
	lgr *logger.Logger,
	cfg *config.Config,
) *usecase.DecisionPipeline {
	histCap := cfg.Pipeline.HistorySize
	if histCap <= 0 {
		histCap = usecase.DefaultHistoryCap
	}
	return usecase.NewDecisionPipeline(usecase.PipelineDeps{
		Inference:       inference,
		Validator:       validator,
		Sessions:        sessions,
		RiskState:       riskState,
		History:         usecase.NewMarketHistory(histCap),
		Store:           store,
		Shadow:          shadow,
		ExecQueue:       execq,
		Metrics:         m,
		Logger:          lgr,
		BaseStake:       cfg.Risk.BaseStake,
		StrategyVersion: "v1",
	})
}

// ProvideTickCollector creates the collector with the throttling
// middleware between WebSocket and the decision pipeline.
func ProvideTickCollector(
	s repository.TickStream,
	pipeline *usecase.DecisionPipeline,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickCollector {
	maxRPS := cfg.Pipeline.MaxTicksPerSecond
	if maxRPS <= 0 {
		maxRPS = 50
	}
	bufSize := cfg.Pipeline.BufferSize
	if bufSize <= 0 {
		bufSize = 2000
	}
	pipe := mid.NewTickPipeline(pipeline, m,
		mid.WithMaxRPS(maxRPS),
		mid.WithBufferSize(bufSize),
	)
	return usecase.NewTickCollector(s, pipeline, m, pipe)
}

// ProvideKafkaTicksHandler registers the handler for the ticks topic.
func ProvideKafkaTicksHandler(pipeline *usecase.DecisionPipeline, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, pipeline, m)
}

// ProvideAuditEngine creates the replay and idempotency audit engine.
func ProvideAuditEngine(store repository.TradeStore) *audit.Engine {
	return audit.NewEngine(store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	registry *session.Registry,
	auditEngine *audit.Engine,
	replayCache icache.BytesCache,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, lgr, collector, consumer, kh, chClient, registry, auditEngine, replayCache)
}
