package di

import (
	"context"
	"fmt"
	"time"

	"PanelPulse/internal/domain/models"
	"PanelPulse/internal/domain/repository"
	"PanelPulse/internal/handler/api"
	mid "PanelPulse/internal/middleware"
	internalrepo "PanelPulse/internal/repository"
	icache "PanelPulse/internal/service/cache"
	"PanelPulse/internal/service/narrativefeed"
	"PanelPulse/internal/usecase"
	pkgcache "PanelPulse/pkg/cache"
	pkgch "PanelPulse/pkg/clickhouse"
	"PanelPulse/pkg/config"
	pkgkafka "PanelPulse/pkg/kafka"
	applogger "PanelPulse/pkg/logger"
	"PanelPulse/pkg/metrics"
	"PanelPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates the metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}
	}
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
// Returns nil for the memory backend.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.entities (
			id String, name String, kind String, universe String
		) ENGINE=ReplacingMergeTree ORDER BY id`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trading_metrics (
			entity_id String, volatility Float64, momentum Float64, media_boost Float64,
			house String, arc_phase String, calculation_version Int64, recalculated_at DateTime64(3)
		) ENGINE=MergeTree ORDER BY (entity_id, calculation_version)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.opportunities (
			entity_id String, kind String, score Float64, house String,
			recommendation String, detected_at DateTime64(3)
		) ENGINE=MergeTree ORDER BY (detected_at, entity_id)`, db),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideEntityCatalog creates the entity catalog for the configured backend.
func ProvideEntityCatalog(chClient *pkgch.Client, cfg *config.Config) repository.EntityCatalog {
	if chClient != nil {
		return internalrepo.NewCHEntityCatalog(chClient.DB(), cfg.ClickHouse.Database+".entities")
	}
	catalog := internalrepo.NewMemoryEntityCatalog()
	for _, e := range cfg.Backend.Entities {
		catalog.Add(&models.TradableEntity{
			ID:       e.ID,
			Name:     e.Name,
			Kind:     models.EntityKind(e.Kind),
			Universe: e.Universe,
		})
	}
	return catalog
}

// ProvideMetricsStore creates the metrics store for the configured backend.
func ProvideMetricsStore(chClient *pkgch.Client, cfg *config.Config) repository.MetricsStore {
	if chClient != nil {
		return internalrepo.NewCHMetricsStore(chClient.DB(), cfg.ClickHouse.Database+".trading_metrics")
	}
	return internalrepo.NewMemoryMetricsStore()
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
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
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
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

// ProvideAlertSink fans detected opportunities out to every configured
// destination: the Kafka alerts topic and the ClickHouse archive.
func ProvideAlertSink(producer *pkgkafka.Producer, chClient *pkgch.Client, cfg *config.Config) repository.AlertSink {
	var sinks []repository.AlertSink
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaAlertSink(producer, cfg.Kafka.AlertsTopic))
	}
	if chClient != nil {
		sinks = append(sinks, internalrepo.NewCHOpportunityArchive(chClient.DB(), cfg.ClickHouse.Database+".opportunities"))
	}
	if len(sinks) == 0 {
		return internalrepo.NewMemoryAlertSink()
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return internalrepo.NewFanoutAlertSink(sinks...)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.EventsTopic == "" {
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

// ProvideFreshnessCache creates the metrics freshness cache.
func ProvideFreshnessCache(cfg *config.Config) *icache.FreshnessCache {
	var opts []icache.Option
	if cfg.Pipeline.CacheTTL > 0 {
		opts = append(opts, icache.WithTTL(cfg.Pipeline.CacheTTL))
	}
	if cfg.Pipeline.CacheMaxSize > 0 {
		opts = append(opts, icache.WithMaxSize(cfg.Pipeline.CacheMaxSize))
	}
	return icache.New(opts...)
}

// ProvideResponseCache creates the read-API response cache.
func ProvideResponseCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Pipeline.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitHostPort(cfg.Pipeline.Redis.Addr)
	redis, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Pipeline.Redis.Password),
		pkgcache.WithRedisDB(cfg.Pipeline.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redis), nil
}

func splitHostPort(addr string) (string, int) {
	host := "localhost"
	port := 6379
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host = addr[:i]
			p := 0
			for _, ch := range addr[i+1:] {
				if ch < '0' || ch > '9' {
					return host, port
				}
				p = p*10 + int(ch-'0')
			}
			if p > 0 {
				port = p
			}
			return host, port
		}
	}
	if addr != "" {
		host = addr
	}
	return host, port
}

// ProvideEntityResolver creates the entity resolver.
func ProvideEntityResolver(catalog repository.EntityCatalog, m repository.Metrics) *usecase.EntityResolver {
	return usecase.NewEntityResolver(catalog, m)
}

// ProvideMetricsUpdater creates the metrics updater.
func ProvideMetricsUpdater(store repository.MetricsStore, fc *icache.FreshnessCache, m repository.Metrics, l *applogger.Logger) *usecase.MetricsUpdater {
	return usecase.NewMetricsUpdater(store, fc, m, l)
}

// ProvideNarrativePipeline creates the narrative pipeline.
func ProvideNarrativePipeline(
	resolver *usecase.EntityResolver,
	updater *usecase.MetricsUpdater,
	fc *icache.FreshnessCache,
	alerts repository.AlertSink,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.NarrativePipeline {
	return usecase.NewNarrativePipeline(resolver, updater, fc, alerts, m, l)
}

// ProvideBatchRecalculator creates the chunked batch recalculator.
func ProvideBatchRecalculator(catalog repository.EntityCatalog, updater *usecase.MetricsUpdater, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.BatchRecalculator {
	var opts []usecase.RecalcOption
	if cfg.Pipeline.ChunkSize > 0 {
		opts = append(opts, usecase.WithChunkSize(cfg.Pipeline.ChunkSize))
	}
	if cfg.Pipeline.ChunkPause > 0 {
		opts = append(opts, usecase.WithChunkPause(cfg.Pipeline.ChunkPause))
	}
	return usecase.NewBatchRecalculator(catalog, updater, m, l, opts...)
}

// ProvideOpportunityDetector creates the opportunity detector.
func ProvideOpportunityDetector(store repository.MetricsStore, m repository.Metrics, cfg *config.Config) *usecase.OpportunityDetector {
	var opts []usecase.DetectorOption
	if cfg.Pipeline.ScanWindow > 0 {
		opts = append(opts, usecase.WithScanWindow(cfg.Pipeline.ScanWindow))
	}
	if cfg.Pipeline.ScanLimit > 0 {
		opts = append(opts, usecase.WithScanLimit(cfg.Pipeline.ScanLimit))
	}
	return usecase.NewOpportunityDetector(store, m, opts...)
}

// ProvideScheduler creates the pipeline scheduler.
func ProvideScheduler(
	pipeline *usecase.NarrativePipeline,
	recalc *usecase.BatchRecalculator,
	detector *usecase.OpportunityDetector,
	fc *icache.FreshnessCache,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Scheduler {
	var opts []usecase.SchedulerOption
	if cfg.Pipeline.TickPeriod > 0 {
		opts = append(opts, usecase.WithTickPeriod(cfg.Pipeline.TickPeriod))
	}
	if cfg.Pipeline.DrainLimit > 0 {
		opts = append(opts, usecase.WithDrainLimit(cfg.Pipeline.DrainLimit))
	}
	return usecase.NewScheduler(pipeline, recalc, detector, fc, m, l, opts...)
}

// ProvideEventIntake creates the intake between event sources and the pipeline.
func ProvideEventIntake(pipeline *usecase.NarrativePipeline, m repository.Metrics, cfg *config.Config) *mid.EventIntake {
	var opts []mid.IntakeOption
	if cfg.Pipeline.Intake.MaxRPS > 0 {
		opts = append(opts, mid.WithMaxRPS(cfg.Pipeline.Intake.MaxRPS))
	}
	if cfg.Pipeline.Intake.BufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Pipeline.Intake.BufferSize))
	}
	return mid.NewEventIntake(pipeline, m, opts...)
}

// ProvideEventStream creates the narrative feed stream, or nil when disabled.
func ProvideEventStream(cfg *config.Config) repository.EventStream {
	if !cfg.Feed.Enabled {
		return nil
	}
	return narrativefeed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.RESTURL,
		cfg.Feed.Channels,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideEventCollector creates the feed collector, or nil when the feed is
// disabled.
func ProvideEventCollector(stream repository.EventStream, intake *mid.EventIntake, m repository.Metrics) *usecase.EventCollector {
	if stream == nil {
		return nil
	}
	return usecase.NewEventCollector(stream, intake, m)
}

// ProvideKafkaEventsHandler registers the handler for the events topic.
func ProvideKafkaEventsHandler(intake *mid.EventIntake, m repository.Metrics, cfg *config.Config) *usecase.KafkaEventsHandler {
	return usecase.NewKafkaEventsHandler(cfg.Kafka.EventsTopic, intake, m)
}

// ProvideEventsHandler creates the event submission HTTP handler.
func ProvideEventsHandler(l *applogger.Logger, pipeline *usecase.NarrativePipeline) *api.EventsEchoHandler {
	return api.NewEventsEchoHandler(l, pipeline)
}

// ProvidePipelineHandler creates the read-side HTTP handler.
func ProvidePipelineHandler(
	l *applogger.Logger,
	pipeline *usecase.NarrativePipeline,
	sched *usecase.Scheduler,
	catalog repository.EntityCatalog,
	store repository.MetricsStore,
	respCache pkgcache.Service,
) *api.PipelineEchoHandler {
	return api.NewPipelineEchoHandler(l, pipeline, sched, catalog, store, respCache)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	sched *usecase.Scheduler,
	collector *usecase.EventCollector,
	intake *mid.EventIntake,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaEventsHandler,
	chClient *pkgch.Client,
	alerts repository.AlertSink,
	store repository.MetricsStore,
	events *api.EventsEchoHandler,
	pipeline *api.PipelineEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, l, sched, collector, intake, consumer, kh, chClient, alerts, store, events, pipeline)
}
