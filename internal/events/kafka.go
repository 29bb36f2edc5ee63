package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Producer is the subset of a Kafka writer the mirror needs.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafkago.Message) error
	Close() error
}

// NewKafkaProducer builds a traced writer for topic.
func NewKafkaProducer(brokers []string, topic, clientID string, tp trace.TracerProvider) (Producer, error) {
	baseWriter := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", clientID),
			},
		),
	)
}

type mirrored struct {
	ctx context.Context
	msg kafkago.Message
}

// KafkaMirror copies every event onto a Kafka topic from a background
// goroutine. Events are dropped when the queue is full or the broker fails.
type KafkaMirror struct {
	producer Producer
	queue    chan mirrored
	timeout  time.Duration
	logger   *zap.Logger
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

func NewKafkaMirror(producer Producer, buffer int, logger *zap.Logger) *KafkaMirror {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaMirror{
		producer: producer,
		queue:    make(chan mirrored, buffer),
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

func (m *KafkaMirror) Publish(ctx context.Context, evt Event) {
	value, err := json.Marshal(evt)
	if err != nil {
		m.logger.Error("kafka mirror: encode event", zap.String("event", evt.Name), zap.Error(err))
		return
	}

	item := mirrored{
		// keep the span for propagation but not the request deadline
		ctx: context.WithoutCancel(ctx),
		msg: kafkago.Message{
			Key:   []byte(evt.Name),
			Value: value,
			Time:  time.Now(),
		},
	}

	select {
	case m.queue <- item:
	default:
		m.dropped.Add(1)
		m.logger.Warn("kafka mirror queue full, event dropped", zap.String("event", evt.Name))
	}
}

// Run writes queued events until ctx is done, then closes the producer.
func (m *KafkaMirror) Run(ctx context.Context) error {
	defer func() {
		if err := m.producer.Close(); err != nil {
			m.logger.Error("kafka mirror: close producer", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case item := <-m.queue:
			m.write(item)
		}
	}
}

func (m *KafkaMirror) write(item mirrored) {
	ctx, cancel := context.WithTimeout(item.ctx, m.timeout)
	defer cancel()

	if err := m.producer.WriteMessage(ctx, item.msg); err != nil {
		m.failed.Add(1)
		m.logger.Error("kafka mirror: write failed",
			zap.String("event", string(item.msg.Key)),
			zap.Error(err),
		)
	}
}

func (m *KafkaMirror) Dropped() uint64 { return m.dropped.Load() }
func (m *KafkaMirror) Failed() uint64  { return m.failed.Load() }
