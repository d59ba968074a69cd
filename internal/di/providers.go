package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"TrendPull/internal/domain/repository"
	domsvc "TrendPull/internal/domain/service"
	"TrendPull/internal/handler/api"
	"TrendPull/internal/handler/ws"
	internalrepo "TrendPull/internal/repository"
	"TrendPull/internal/service/broker"
	"TrendPull/internal/service/cache"
	svcmetrics "TrendPull/internal/service/metrics"
	"TrendPull/internal/service/ratelimit"
	"TrendPull/internal/service/yahoo"
	"TrendPull/internal/services/llm"
	"TrendPull/internal/usecase"
	pkgch "TrendPull/pkg/clickhouse"
	"TrendPull/pkg/config"
	xhttp "TrendPull/pkg/http"
	pkgkafka "TrendPull/pkg/kafka"
	applogger "TrendPull/pkg/logger"
	"TrendPull/pkg/metrics"
	"TrendPull/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("app", cfg.App.Name), applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when metrics are off.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	svcmetrics.Register(prometheus.DefaultRegisterer)
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideClickHouseClient creates a ClickHouse client. Nil when disabled.
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
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer. Nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(p.Compression),
		pkgkafka.WithRequiredAcks(p.RequiredAcks),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithWriteTimeout(p.WriteTimeout),
		pkgkafka.WithBatching(p.BatchSize, p.Linger),
		pkgkafka.WithAsync(p.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideReportPublisher publishes reports to the report topic. Nil without a producer.
func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config, m repository.Metrics) repository.ReportPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportTopic, m)
}

// ProvideKlineSource selects the market data provider.
func ProvideKlineSource(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.KlineSource, error) {
	switch cfg.Market.Provider {
	case config.ProviderClickHouse:
		if ch == nil {
			return nil, fmt.Errorf("kline source: clickhouse client not available")
		}
		return internalrepo.NewCHKlineSource(ch, cfg.ClickHouse.Table, l)
	default:
		y := cfg.Market.Yahoo
		return yahoo.New(yahoo.Config{BaseURL: y.BaseURL, Range: y.Range, Interval: y.Interval, Timeout: y.Timeout}, l), nil
	}
}

// ProvideRedisCache connects the report cache. Nil when redis is disabled.
func ProvideRedisCache(cfg *config.Config) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	return cache.NewRedisCache(cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
}

// ProvideBytesCache falls back to an in-process cache without redis.
func ProvideBytesCache(rc *cache.RedisCache) cache.BytesCache {
	if rc == nil {
		return cache.NewMemoryBytes()
	}
	return rc
}

func ProvideTrendPipeline(src repository.KlineSource, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.TrendPipeline {
	return usecase.NewTrendPipeline(src, usecase.PipelineConfig{
		Indicators:  cfg.Analysis.Indicators,
		Trend:       cfg.Analysis.Trend,
		HistoryDays: cfg.Analysis.HistoryDays,
		CacheTTL:    cfg.Market.CacheTTL,
	}, m, l)
}

// ProvideChatCompleter builds the Azure OpenAI client. Nil when llm settings are incomplete.
func ProvideChatCompleter(cfg *config.Config) domsvc.ChatCompleter {
	if !cfg.LLMConfigured() {
		return nil
	}
	return llm.NewAzureOpenAI(llm.AzureConfig{
		Endpoint:        cfg.LLM.Endpoint,
		APIVersion:      cfg.LLM.APIVersion,
		Deployment:      cfg.LLM.Deployment,
		SubscriptionKey: cfg.LLM.SubscriptionKey,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         cfg.LLM.Timeout,
	})
}

// ProvidePromptTemplate loads the prompt file. A missing file disables the llm endpoint.
func ProvidePromptTemplate(cfg *config.Config, l *applogger.Logger) *llm.Template {
	tpl, err := llm.LoadTemplate(cfg.LLM.PromptPath)
	if err != nil {
		l.Warn("llm prompt unavailable", applogger.String("path", cfg.LLM.PromptPath), applogger.Error(err))
		return nil
	}
	return tpl
}

func ProvideLLMReport(p *usecase.TrendPipeline, model domsvc.ChatCompleter, tpl *llm.Template, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.LLMReport {
	return usecase.NewLLMReport(p, model, tpl, cfg.Analysis.Trend.TrendLookbackPeriod, cfg.LLM.Retry, m, l)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(0, l)
}

func ProvideBroker(cfg *config.Config, l *applogger.Logger) repository.BrokerScanner {
	return broker.New(cfg.Scanner.BaseURL, cfg.Scanner.Timeout, l)
}

func ProvideScanner(b repository.BrokerScanner, p *usecase.TrendPipeline, pub repository.ReportPublisher, hub *ws.Hub, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.Scanner {
	return usecase.NewScanner(b, p, pub, hub, usecase.ScannerConfig{
		VolumeRatio: cfg.Scanner.VolumeRatio,
		Concurrency: cfg.Scanner.Concurrency,
		Lookback:    cfg.Analysis.Trend.TrendLookbackPeriod,
	}, m, l)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideStockHandler(l *applogger.Logger, p *usecase.TrendPipeline, r *usecase.LLMReport, s *usecase.Scanner, c cache.BytesCache, lim *ratelimit.Limiter, cfg *config.Config) *api.StockEchoHandler {
	return api.NewStockEchoHandler(l, p, r, s, c, cfg.Redis.ReportTTL, lim)
}

// ProvideHealthHandler probes redis and clickhouse when they are configured.
func ProvideHealthHandler(rc *cache.RedisCache, ch *pkgch.Client) *api.HealthHandler {
	checks := map[string]api.Check{}
	if rc != nil {
		checks["redis"] = rc.Ping
	}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	return api.NewHealthHandler(checks)
}

func ProvideHandlers(stock *api.StockEchoHandler, health *api.HealthHandler, hub *ws.Hub) xhttp.Handler {
	return xhttp.Handlers{health, stock, hub}
}

func ProvideHTTPServer(h xhttp.Handler, cfg *config.Config, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

func ProvideKafkaAnalysisHandler(p *usecase.TrendPipeline, pub repository.ReportPublisher, hub *ws.Hub, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.KafkaAnalysisHandler {
	return usecase.NewKafkaAnalysisHandler(cfg.Kafka.RequestTopic, p, pub, hub, m, l)
}

// ProvideKafkaConsumer subscribes the analysis handler to the request topic. Nil when kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, h *usecase.KafkaAnalysisHandler, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(h)
	consumer.WithHook(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideApp assembles the lifecycle and the shutdown order of every client.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	rc *cache.RedisCache,
	ch *pkgch.Client,
	hub *ws.Hub,
) *server.App {
	app := server.New(l, srv, consumer, cfg.Server.ShutdownTimeout)

	if ch != nil {
		app.OnShutdown("clickhouse", ch.Close)
	}
	if rc != nil {
		app.OnShutdown("redis", rc.Close)
	}
	if producer != nil {
		app.OnShutdown("kafka producer", producer.Close)
		if cc := cfg.Logging.Collector; cc.Enabled {
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cc.Interval,
				CountThreshold: cc.Threshold,
				Topic:          cc.Topic,
				Publisher:      producer,
			})
			app.OnShutdown("log collector", func() error { l.RemoveCollector(); return nil })
		}
	}
	app.OnShutdown("ws hub", func() error { hub.Close(); return nil })
	return app
}

// Toolkit is the dependency set of the command line tool. It has no server,
// no consumer and no report fan-out.
type Toolkit struct {
	Log      *applogger.Logger
	Pipeline *usecase.TrendPipeline
	Scanner  *usecase.Scanner
	Closers  []func() error
}

func ProvideToolkit(l *applogger.Logger, p *usecase.TrendPipeline, b repository.BrokerScanner, ch *pkgch.Client, cfg *config.Config, m repository.Metrics) *Toolkit {
	s := usecase.NewScanner(b, p, nil, nil, usecase.ScannerConfig{
		VolumeRatio: cfg.Scanner.VolumeRatio,
		Concurrency: cfg.Scanner.Concurrency,
		Lookback:    cfg.Analysis.Trend.TrendLookbackPeriod,
	}, m, l)
	t := &Toolkit{Log: l, Pipeline: p, Scanner: s}
	if ch != nil {
		t.Closers = append(t.Closers, ch.Close)
	}
	return t
}

// Close releases the clients opened for the tool.
func (t *Toolkit) Close() {
	for _, c := range t.Closers {
		_ = c()
	}
}
