package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	applogger "TrendPull/pkg/logger"
)

// MessageHandler handles messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, key, value []byte) error
}

// Consumer fans messages from per-topic readers out to a worker pool.
// Offsets are committed after a message is handled or dead-lettered.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *applogger.Logger
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer
	hook     ConsumerHook

	msgs     chan kafka.Message
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewConsumer(l *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "trendpull",
		WorkerCount: 2,
		BufferSize:  16,
		RetryMax:    2,
		BackoffMin:  100 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if l == nil {
		l = applogger.Nop()
	}

	c := &Consumer{
		cfg:      cfg,
		log:      l,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		hook:     NoopHook{},
		msgs:     make(chan kafka.Message, cfg.BufferSize),
		stop:     make(chan struct{}),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.Hash{}}
	}
	initConsumerMetrics()
	return c, nil
}

// RegisterHandler binds h to its topic. A second handler for the same topic is ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, ok := c.handlers[h.Topic()]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

// WithHook installs lifecycle hooks around each handled message.
func (c *Consumer) WithHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start launches one reader per registered topic and the worker pool.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("kafka consumer: no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	var readers sync.WaitGroup
	for topic, r := range c.readers {
		readers.Add(1)
		go func(topic string, r *kafka.Reader) {
			defer readers.Done()
			c.fetch(topic, r)
		}(topic, r)
	}
	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.work()
	}
	go func() {
		readers.Wait()
		close(c.msgs)
	}()

	c.log.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
		applogger.String("group_id", c.cfg.GroupID),
	)
	return nil
}

// Stop halts fetching, drains in-flight work and closes readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
	})
	return err
}

func (c *Consumer) fetch(topic string, r *kafka.Reader) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.stop
		cancel()
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.log.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
				continue
			case <-c.stop:
				return
			}
		}
		select {
		case c.msgs <- m:
			queueDepth.WithLabelValues(topic).Set(float64(len(c.msgs)))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) work() {
	defer c.wg.Done()
	for m := range c.msgs {
		c.process(m)
	}
}

func (c *Consumer) process(m kafka.Message) {
	h, ok := c.handlers[m.Topic]
	if !ok {
		return
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("kafka handler panic", applogger.String("topic", m.Topic), applogger.Any("panic", r))
		}
		handleLatency.WithLabelValues(m.Topic).Observe(time.Since(start).Seconds())
	}()

	var err error
	for attempt := 1; ; attempt++ {
		ctx, berr := c.hook.BeforeHandle(context.Background(), m)
		if berr != nil {
			err = berr
			break
		}
		err = h.Handle(ctx, m.Key, m.Value)
		c.hook.AfterHandle(ctx, m, err)
		if err == nil || attempt > c.cfg.RetryMax {
			break
		}
		select {
		case <-time.After(backoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stop:
			return
		}
	}

	if err != nil {
		handleErrors.WithLabelValues(m.Topic).Inc()
		c.log.Error("kafka message failed",
			applogger.String("topic", m.Topic),
			applogger.String("key", string(m.Key)),
			applogger.Int64("offset", m.Offset),
			applogger.Error(err),
		)
		if !c.deadLetter(m, err) {
			return
		}
	}
	if r := c.readers[m.Topic]; r != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := r.CommitMessages(ctx, m); cerr != nil {
			c.log.Warn("kafka commit failed", applogger.String("topic", m.Topic), applogger.Error(cerr))
		}
	}
}

// deadLetter forwards m to the DLQ and reports whether its offset may be committed.
func (c *Consumer) deadLetter(m kafka.Message, cause error) bool {
	if c.dlq == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers,
			kafka.Header{Key: "source_topic", Value: []byte(m.Topic)},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
		),
	})
	if err != nil {
		c.log.Error("kafka dlq write failed", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(err))
		return false
	}
	return true
}

func backoff(min, max time.Duration, attempt int) time.Duration {
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}

var (
	consumerOnce  sync.Once
	queueDepth    *prometheus.GaugeVec
	handleLatency *prometheus.HistogramVec
	handleErrors  *prometheus.CounterVec
)

func initConsumerMetrics() {
	consumerOnce.Do(func() {
		queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendpull_kafka_consumer_queue_depth",
			Help: "Messages waiting for a worker",
		}, []string{"topic"})
		handleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "trendpull_kafka_consumer_handle_seconds",
			Help: "Handling time per message",
		}, []string{"topic"})
		handleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trendpull_kafka_consumer_errors_total",
			Help: "Messages that failed after retries",
		}, []string{"topic"})
	})
}
