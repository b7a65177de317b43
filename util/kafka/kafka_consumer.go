package kafka

import (
	"context"
	"net/url"
	"sync"

	"github.com/IBM/sarama"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/ulogger"
	"go.uber.org/atomic"
)

// Consumer reads [uri, data] messages from every partition of a topic. Messages that do not
// decode as transactions are logged and skipped. A partition error or a closed partition
// ends the stream, which Next reports as an error.
type Consumer struct {
	logger     ulogger.Logger
	topic      string
	consumer   sarama.Consumer
	partitions []sarama.PartitionConsumer
	txs        chan model.Transaction
	errs       chan error
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	skipped    atomic.Uint64
}

func NewConsumer(logger ulogger.Logger, kafkaURL *url.URL) (*Consumer, error) {
	cfg, err := ParseURL(kafkaURL)
	if err != nil {
		return nil, err
	}

	enableDebugLogging(logger, cfg)

	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumer(cfg.Brokers, config)
	if err != nil {
		return nil, errors.NewKafkaError("unable to connect to kafka brokers %v", cfg.Brokers, err)
	}

	return NewConsumerWithSaramaConsumer(logger, cfg.Topic, consumer, cfg.Offset)
}

// NewConsumerWithSaramaConsumer starts a partition consumer for each partition of topic.
// The sarama consumer is owned by the returned Consumer and closed with it.
func NewConsumerWithSaramaConsumer(logger ulogger.Logger, topic string, consumer sarama.Consumer, offset int64) (*Consumer, error) {
	partitions, err := consumer.Partitions(topic)
	if err != nil {
		_ = consumer.Close()
		return nil, errors.NewKafkaError("unable to list partitions of topic %s", topic, err)
	}

	c := &Consumer{
		logger:   logger,
		topic:    topic,
		consumer: consumer,
		txs:      make(chan model.Transaction),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}

	for _, partition := range partitions {
		pc, err := consumer.ConsumePartition(topic, partition, offset)
		if err != nil {
			_ = c.Close()
			return nil, errors.NewKafkaError("unable to consume partition %d of topic %s", partition, topic, err)
		}

		c.partitions = append(c.partitions, pc)
	}

	for i, pc := range c.partitions {
		c.wg.Add(1)

		go c.pump(partitions[i], pc)
	}

	logger.Infof("[Kafka] consuming %d partitions of topic %s", len(partitions), topic)

	return c, nil
}

func (c *Consumer) pump(partition int32, pc sarama.PartitionConsumer) {
	defer c.wg.Done()

	messages := pc.Messages()
	errs := pc.Errors()

	for {
		select {
		case <-c.done:
			return

		case msg, ok := <-messages:
			if !ok {
				c.fail(errors.NewKafkaError("partition %d of topic %s closed", partition, c.topic))
				return
			}

			tx, err := model.DecodeTransaction(msg.Value)
			if err != nil {
				c.skipped.Inc()
				c.logger.Warnf("[Kafka] skipping message at %s/%d offset %d: %v", c.topic, partition, msg.Offset, err)

				continue
			}

			select {
			case c.txs <- tx:
			case <-c.done:
				return
			}

		case consumerErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}

			c.fail(errors.NewKafkaError("partition %d of topic %s failed", partition, c.topic, consumerErr.Err))

			return
		}
	}
}

func (c *Consumer) fail(err error) {
	select {
	case c.errs <- err:
	default:
	}
}

// Next blocks until a transaction arrives, the stream fails or ctx is done.
func (c *Consumer) Next(ctx context.Context) (model.Transaction, error) {
	select {
	case <-ctx.Done():
		return model.Transaction{}, ctx.Err()
	case tx := <-c.txs:
		return tx, nil
	case err := <-c.errs:
		return model.Transaction{}, err
	case <-c.done:
		return model.Transaction{}, errors.NewKafkaError("consumer for topic %s closed", c.topic)
	}
}

// Skipped counts messages that could not be decoded.
func (c *Consumer) Skipped() uint64 {
	return c.skipped.Load()
}

func (c *Consumer) Close() error {
	var err error

	c.closeOnce.Do(func() {
		close(c.done)

		for _, pc := range c.partitions {
			if closeErr := pc.Close(); closeErr != nil {
				c.logger.Debugf("[Kafka] closing partition consumer of %s: %v", c.topic, closeErr)
			}
		}

		c.wg.Wait()

		if closeErr := c.consumer.Close(); closeErr != nil {
			err = errors.NewKafkaError("failed to close consumer for topic %s", c.topic, closeErr)
		}
	})

	return err
}
