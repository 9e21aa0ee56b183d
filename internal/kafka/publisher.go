package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/gammazero/workerpool"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nguyentranbao-ct/hds-chat/internal/config"
	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
	"github.com/nguyentranbao-ct/hds-chat/pkg/util"
)

// Publisher emits chat activities. Publish never blocks on the broker.
type Publisher interface {
	Publish(ctx context.Context, activity models.Activity)
	Close(ctx context.Context) error
}

type saramaPublisher struct {
	producer   sarama.SyncProducer
	topic      string
	metrics    *prometheus.HistogramVec
	workerPool *workerpool.WorkerPool
}

// NewPublisher connects a sync producer to the configured brokers, or returns a
// no-op publisher when kafka is disabled.
func NewPublisher(cfg *config.KafkaConfig) (Publisher, error) {
	if !cfg.Enabled {
		return noopPublisher{}, nil
	}

	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Retry.Max = 3
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newSaramaPublisher(producer, cfg.ActivityTopic, cfg.Workers)
}

func newSaramaPublisher(producer sarama.SyncProducer, topic string, workers int) (*saramaPublisher, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_published", "Activities published to kafka", "status", "topic")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}
	return &saramaPublisher{
		producer:   producer,
		topic:      topic,
		metrics:    metrics,
		workerPool: workerpool.New(workers),
	}, nil
}

func (p *saramaPublisher) Publish(ctx context.Context, activity models.Activity) {
	ctx = context.WithoutCancel(ctx)
	p.workerPool.Submit(func() {
		if err := p.send(activity); err != nil {
			log.Errorw(ctx, "publish activity", "kind", activity.Kind, "error", err)
		}
	})
}

func (p *saramaPublisher) send(activity models.Activity) error {
	start := time.Now()
	value, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	// one partition per conversation keeps its activities ordered
	key := activity.ConversationID
	if key == "" {
		key = activity.UserID
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(activity.Kind)},
		},
	}
	_, _, err = p.producer.SendMessage(msg)
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.WithLabelValues(status, p.topic).Observe(time.Since(start).Seconds())
	return err
}

// Close drains queued activities then closes the producer.
func (p *saramaPublisher) Close(ctx context.Context) error {
	log.Infof(ctx, "Stopping kafka publisher for topic: %s", p.topic)
	p.workerPool.StopWait()
	return p.producer.Close()
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.Activity) {}
func (noopPublisher) Close(context.Context) error              { return nil }
