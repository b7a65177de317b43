package kafka

import (
	"context"
	"net/url"
	"sync"

	"github.com/IBM/sarama"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
)

// Producer publishes accepted transactions to a topic as [uri, data], keyed by uri so that
// every write to one uri lands on the same partition.
type Producer struct {
	name     string
	topic    string
	logger   ulogger.Logger
	producer sarama.SyncProducer

	mu      sync.Mutex
	lastErr error
	sent    uint64
	closed  bool
}

// NewProducer creates the topic when asked to and connects a sync producer to the brokers.
func NewProducer(logger ulogger.Logger, kafkaURL *url.URL) (*Producer, error) {
	cfg, err := ParseURL(kafkaURL)
	if err != nil {
		return nil, err
	}

	enableDebugLogging(logger, cfg)

	if cfg.CreateTopic {
		if err = createTopic(cfg); err != nil {
			return nil, err
		}
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Partitioner = sarama.NewHashPartitioner

	conn, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, errors.NewServiceUnavailableError("unable to connect to kafka", err)
	}

	return NewProducerWithSyncProducer(logger, "kafka:"+cfg.Topic, cfg.Topic, conn), nil
}

func NewProducerWithSyncProducer(logger ulogger.Logger, name, topic string, producer sarama.SyncProducer) *Producer {
	return &Producer{
		name:     name,
		topic:    topic,
		logger:   logger,
		producer: producer,
	}
}

func createTopic(cfg *Config) error {
	config := sarama.NewConfig()
	config.Version = sarama.V2_1_0_0

	clusterAdmin, err := sarama.NewClusterAdmin(cfg.Brokers, config)
	if err != nil {
		return errors.NewServiceUnavailableError("error while creating cluster admin", err)
	}

	defer func() {
		_ = clusterAdmin.Close()
	}()

	retention := cfg.RetentionMs

	if err = clusterAdmin.CreateTopic(cfg.Topic, &sarama.TopicDetail{
		NumPartitions:     cfg.Partitions,
		ReplicationFactor: cfg.ReplicationFactor,
		ConfigEntries: map[string]*string{
			"retention.ms":        &retention,
			"delete.retention.ms": &retention,
			"segment.ms":          &retention,
		},
	}, false); err != nil {
		if !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return errors.NewServiceError("unable to create kafka topic %s", cfg.Topic, err)
		}
	}

	return nil
}

func (p *Producer) Name() string {
	return p.name
}

// Write publishes the transaction and returns a record stamped with the send time.
// The context is only checked before sending, a sync send cannot be interrupted.
func (p *Producer) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewContextError("[Kafka][%s] write cancelled", uri, err)
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return nil, errors.NewServiceUnavailableError("[Kafka][%s] producer is closed", p.topic)
	}

	payload, err := json.Marshal(model.NewTransaction(uri, value))
	if err != nil {
		return nil, errors.NewProcessingError("[Kafka][%s] failed to encode transaction", uri, err)
	}

	record := model.NewRecord(value)

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(uri),
		Value: sarama.ByteEncoder(payload),
	})

	p.mu.Lock()
	p.lastErr = err
	if err == nil {
		p.sent++
	}
	p.mu.Unlock()

	if err != nil {
		return nil, errors.NewKafkaError("[Kafka][%s] failed to send to topic %s", uri, p.topic, err)
	}

	return record, nil
}

// Health reports the outcome of the most recent send.
func (p *Producer) Health(_ context.Context) health.Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return health.Report{Status: health.Unhealthy, Message: "kafka producer closed"}
	case p.lastErr != nil:
		return health.Report{Status: health.Unhealthy, Message: "last send failed: " + p.lastErr.Error()}
	default:
		return health.Report{Status: health.Healthy, Message: "kafka producer ready"}
	}
}

func (p *Producer) Sent() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.sent
}

func (p *Producer) Close(_ context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}

	p.closed = true
	p.mu.Unlock()

	if err := p.producer.Close(); err != nil {
		return errors.NewServiceError("failed to close Kafka producer", err)
	}

	return nil
}
