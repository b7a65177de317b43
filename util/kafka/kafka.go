// Package kafka carries accepted transactions over a Kafka topic. The producer side is a
// distributor peer, the consumer side feeds the data node.
package kafka

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/IBM/sarama"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/ulogger"
	jsoniter "github.com/json-iterator/go"
)

/**
kafka-topics.sh --list --bootstrap-server localhost:9092

kafka-console-consumer.sh --topic txns --bootstrap-server localhost:9092 --from-beginning
*/

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config is what a kafka://broker1,broker2/topic?partitions=1 URL describes.
type Config struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	RetentionMs       string
	CreateTopic       bool
	// Offset is where a consumer starts, sarama.OffsetNewest unless ?offset=oldest.
	Offset int64
	Debug  bool
}

func ParseURL(kafkaURL *url.URL) (*Config, error) {
	if kafkaURL == nil {
		return nil, errors.NewConfigurationError("kafka url is nil")
	}

	if kafkaURL.Scheme != "kafka" {
		return nil, errors.NewConfigurationError("unsupported kafka scheme %q", kafkaURL.Scheme)
	}

	brokers := make([]string, 0)

	for _, b := range strings.Split(kafkaURL.Host, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	if len(brokers) == 0 {
		return nil, errors.NewConfigurationError("kafka url %s has no brokers", kafkaURL.String())
	}

	topic := strings.Trim(kafkaURL.Path, "/")
	if topic == "" {
		return nil, errors.NewConfigurationError("kafka url %s has no topic", kafkaURL.String())
	}

	cfg := &Config{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        int32(getQueryParamInt(kafkaURL, "partitions", 1)),
		ReplicationFactor: int16(getQueryParamInt(kafkaURL, "replication", 1)),
		RetentionMs:       getQueryParam(kafkaURL, "retention", "600000"), // 10 minutes
		CreateTopic:       getQueryParam(kafkaURL, "create_topic", "true") == "true",
		Offset:            sarama.OffsetNewest,
		Debug:             getQueryParam(kafkaURL, "debug", "false") == "true",
	}

	if cfg.Partitions < 1 {
		return nil, errors.NewConfigurationError("kafka partitions must be at least 1, got %d", cfg.Partitions)
	}

	switch getQueryParam(kafkaURL, "offset", "newest") {
	case "newest":
	case "oldest":
		cfg.Offset = sarama.OffsetOldest
	default:
		return nil, errors.NewConfigurationError("kafka offset must be oldest or newest")
	}

	return cfg, nil
}

func getQueryParam(u *url.URL, key, defaultValue string) string {
	if v := u.Query().Get(key); v != "" {
		return v
	}

	return defaultValue
}

func getQueryParamInt(u *url.URL, key string, defaultValue int) int {
	v := u.Query().Get(key)
	if v == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}

	return i
}

// saramaLoggerAdapter adapts ulogger.Logger to the sarama.StdLogger interface
type saramaLoggerAdapter struct {
	logger ulogger.Logger
}

func (s *saramaLoggerAdapter) Print(v ...interface{}) {
	s.logger.Debugf("[SARAMA] %v", v...)
}

func (s *saramaLoggerAdapter) Printf(format string, v ...interface{}) {
	s.logger.Debugf("[SARAMA] "+format, v...)
}

func (s *saramaLoggerAdapter) Println(v ...interface{}) {
	s.logger.Debugf("[SARAMA] %v", v...)
}

func enableDebugLogging(logger ulogger.Logger, cfg *Config) {
	if cfg.Debug {
		sarama.Logger = &saramaLoggerAdapter{logger: logger}
	}
}
