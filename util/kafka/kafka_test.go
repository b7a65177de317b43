package kafka

import (
	"net/url"
	"testing"

	"github.com/IBM/sarama"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		u, _ := url.Parse("kafka://localhost:9092/txns")

		cfg, err := ParseURL(u)
		require.NoError(t, err)

		assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
		assert.Equal(t, "txns", cfg.Topic)
		assert.Equal(t, int32(1), cfg.Partitions)
		assert.Equal(t, int16(1), cfg.ReplicationFactor)
		assert.Equal(t, "600000", cfg.RetentionMs)
		assert.True(t, cfg.CreateTopic)
		assert.Equal(t, sarama.OffsetNewest, cfg.Offset)
	})

	t.Run("query parameters", func(t *testing.T) {
		u, _ := url.Parse("kafka://k1:9092,k2:9092/txns?partitions=4&replication=3&offset=oldest&create_topic=false")

		cfg, err := ParseURL(u)
		require.NoError(t, err)

		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
		assert.Equal(t, int32(4), cfg.Partitions)
		assert.Equal(t, int16(3), cfg.ReplicationFactor)
		assert.Equal(t, sarama.OffsetOldest, cfg.Offset)
		assert.False(t, cfg.CreateTopic)
	})

	invalid := []struct {
		name string
		url  string
	}{
		{"wrong scheme", "http://localhost:9092/txns"},
		{"no topic", "kafka://localhost:9092"},
		{"no brokers", "kafka:///txns"},
		{"zero partitions", "kafka://localhost:9092/txns?partitions=0"},
		{"bad offset", "kafka://localhost:9092/txns?offset=middle"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)

			_, err = ParseURL(u)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration))
		})
	}

	t.Run("nil", func(t *testing.T) {
		_, err := ParseURL(nil)
		require.Error(t, err)
	})
}
