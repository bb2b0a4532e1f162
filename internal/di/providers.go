package di

import (
	"context"
	"fmt"
	"time"

	"RiskPulse/internal/domain/repository"
	"RiskPulse/internal/handler/api"
	internalrepo "RiskPulse/internal/repository"
	"RiskPulse/internal/service/cboe"
	"RiskPulse/internal/service/fred"
	"RiskPulse/internal/service/multpl"
	"RiskPulse/internal/service/ratelimit"
	"RiskPulse/internal/service/ssga"
	"RiskPulse/internal/service/ycharts"
	"RiskPulse/internal/services/indicators"
	"RiskPulse/internal/usecase"
	pkgbadger "RiskPulse/pkg/badger"
	"RiskPulse/pkg/cache"
	pkgch "RiskPulse/pkg/clickhouse"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	pkgkafka "RiskPulse/pkg/kafka"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/metrics"
	"RiskPulse/pkg/postgres"
	"RiskPulse/pkg/server"
)

const storeInitTimeout = 30 * time.Second

// ProvideLogger builds the application logger. When Kafka is enabled, error
// entries are aggregated and shipped to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   time.Minute,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	applogger.SetGlobal(l)
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideCache creates the result cache for the configured backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memOpts := []cache.MemoryOption{cache.WithMemoryMaxSize(cfg.Cache.MaxSize)}
	if cfg.Cache.Backend == "memory" {
		return cache.NewMemoryCache(memOpts...), nil
	}

	redis, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Cache.Backend == "layered" {
		return cache.NewLayeredCache(redis, cfg.Cache.LatestTTL, memOpts...), nil
	}
	return redis, nil
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
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the refresh-event consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook{Log: log})
	return consumer, nil
}

// ProvidePutCallStore opens the configured put/call backend and prepares its schema.
func ProvidePutCallStore(cfg *config.Config, log *applogger.Logger) (repository.PutCallStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()

	var store repository.PutCallStore
	switch cfg.Store.Backend {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Store.Postgres.DSN, cfg.Store.Postgres.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		store = internalrepo.NewPostgresPutCallStore(db)
	case "clickhouse":
		ch := cfg.Store.ClickHouse
		client, err := pkgch.NewClient(ctx,
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse store: %w", err)
		}
		store = internalrepo.NewClickHousePutCallStore(client, log)
	default:
		db, err := pkgbadger.Open(pkgbadger.Config{Dir: cfg.Store.Badger.Dir, InMemory: cfg.Store.Badger.InMemory})
		if err != nil {
			return nil, fmt.Errorf("badger store: %w", err)
		}
		store = internalrepo.NewBadgerPutCallStore(db)
	}

	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init %s store: %w", cfg.Store.Backend, err)
	}
	log.Info("put/call store ready", applogger.String("backend", cfg.Store.Backend))
	return store, nil
}

// ProvideScraperClient is the shared HTTP client for scraped sources.
func ProvideScraperClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Sources.RequestTimeout),
		xhttp.WithUserAgent(cfg.Sources.UserAgent),
	)
}

// ProvideFredClient creates the FRED API client with its own request budget.
func ProvideFredClient(cfg *config.Config) *fred.Client {
	http := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Sources.RequestTimeout),
		xhttp.WithUserAgent(cfg.Sources.UserAgent),
		xhttp.WithRateLimit(cfg.Sources.Fred.RPS, 1),
	)
	return fred.New(http, cfg.Sources.Fred.BaseURL, cfg.Sources.Fred.APIKey)
}

// ProvidePageFetcher picks how the CBOE daily statistics page is rendered.
func ProvidePageFetcher(cfg *config.Config, http *xhttp.Client) cboe.PageFetcher {
	if cfg.Sources.Cboe.Renderer == "browser" {
		return cboe.NewBrowserFetcher(cfg.Sources.UserAgent, cfg.Sources.Cboe.RenderWait, cfg.Sources.RequestTimeout)
	}
	return cboe.NewHTTPFetcher(http)
}

// ProvidePutCallCollector wires the put/call scrapers to the store. Its
// refresh notifier is attached by ProvideRefreshNotifier.
func ProvidePutCallCollector(
	cfg *config.Config,
	http *xhttp.Client,
	fetcher cboe.PageFetcher,
	store repository.PutCallStore,
	c cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.PutCallCollector {
	return usecase.NewPutCallCollector(
		ycharts.New(http, cfg.Sources.YCharts.PutCallURL),
		cboe.NewDailyStats(fetcher, cfg.Sources.Cboe.DailyURL),
		store,
		nil,
		c,
		m,
		log,
	)
}

// ProvideSources binds every indicator input to its adapter.
func ProvideSources(
	cfg *config.Config,
	http *xhttp.Client,
	fredClient *fred.Client,
	collector *usecase.PutCallCollector,
	store repository.PutCallStore,
	log *applogger.Logger,
) indicators.Sources {
	src := cfg.Sources
	return indicators.Sources{
		FRED:       fredClient.Series,
		VIX:        cboe.NewHistorySource(http, "vix", src.Cboe.VIXURL),
		VIX3M:      cboe.NewHistorySource(http, "vix3m", src.Cboe.VIX3MURL),
		JNKPremium: ssga.NewWorkbookSource(http, "premium", src.SSGA.PremiumURL),
		JNKNav:     ssga.NewWorkbookSource(http, "nav", src.SSGA.NavURL),
		EPS:        multpl.NewEPSSource(http, src.Multpl.EPSURL),
		SpxPutCall: usecase.NewStoredSpxSource(collector, store, log),
	}
}

func ProvideRegistry(src indicators.Sources) (*indicators.Registry, error) {
	return indicators.Default(src)
}

func ProvideIndicatorService(reg *indicators.Registry, m repository.Metrics, log *applogger.Logger) *usecase.IndicatorService {
	return usecase.NewIndicatorService(reg, m, log)
}

func ProvideCachedIndicators(
	cfg *config.Config,
	svc *usecase.IndicatorService,
	c cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.CachedIndicators {
	return usecase.NewCachedIndicators(svc, c, cfg.Cache.HistoryTTL, cfg.Cache.LatestTTL, m, log)
}

// ProvideRefreshNotifier publishes refresh events to Kafka when enabled and
// invalidates the local cache otherwise. It attaches itself to the collector.
func ProvideRefreshNotifier(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	cached *usecase.CachedIndicators,
	collector *usecase.PutCallCollector,
) repository.RefreshNotifier {
	var n repository.RefreshNotifier
	if producer != nil {
		n = internalrepo.NewKafkaRefreshNotifier(producer, cfg.Kafka.RefreshTopic)
	} else {
		n = usecase.NewLocalInvalidator(cached)
	}
	collector.SetNotifier(n)
	return n
}

func ProvideRefreshHandler(cfg *config.Config, cached *usecase.CachedIndicators, log *applogger.Logger) *usecase.RefreshHandler {
	return usecase.NewRefreshHandler(cfg.Kafka.RefreshTopic, cached, log)
}

// ProvideScheduler returns nil when scheduling is disabled.
func ProvideScheduler(
	cfg *config.Config,
	collector *usecase.PutCallCollector,
	cached *usecase.CachedIndicators,
	log *applogger.Logger,
) (*usecase.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}
	return usecase.NewScheduler(collector, cached, loc, log), nil
}

func ProvideIndicatorsHandler(
	cfg *config.Config,
	log *applogger.Logger,
	cached *usecase.CachedIndicators,
	collector *usecase.PutCallCollector,
) (*api.IndicatorsEchoHandler, error) {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("server timezone: %w", err)
	}
	return api.NewIndicatorsEchoHandler(log, cached, collector, loc), nil
}

// ProvideHTTPServer builds the echo server with the configured middleware.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, h *api.IndicatorsEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithCompression(cfg.Server.Compression),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(log),
	}
	if cfg.Server.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimiter(ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application and registers what it must close.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	refresh *usecase.RefreshHandler,
	scheduler *usecase.Scheduler,
	_ repository.RefreshNotifier,
	store repository.PutCallStore,
	c cache.Service,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, log, srv, consumer, refresh, scheduler)
	app.AddCloser("putcall store", store.Close)
	app.AddCloser("cache", c.Close)
	if producer != nil {
		app.AddCloser("log collector", func() error {
			log.RemoveCollector()
			return nil
		})
		app.AddCloser("kafka producer", producer.Close)
	}
	return app
}
