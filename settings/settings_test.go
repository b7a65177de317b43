package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// check settings object is initialised
func TestInitialiseSettings(t *testing.T) {
	tSettings := NewSettings()

	require.NotNil(t, tSettings.TxNode)
	require.NotNil(t, tSettings.DataNode)
	require.NotNil(t, tSettings.Kafka)

	require.NotNil(t, tSettings.TxNode.ReadStore)
	require.NotNil(t, tSettings.DataNode.Store)
}

func TestDefaults(t *testing.T) {
	tSettings := NewSettings()

	assert.Equal(t, 30*time.Second, tSettings.TxNode.ValidationTimeout)
	assert.Equal(t, 5*time.Second, tSettings.TxNode.PropagationTimeout)
	assert.False(t, tSettings.TxNode.AwaitPropagation)
	assert.False(t, tSettings.TxNode.SerializeValidation)
	assert.Equal(t, "memory", tSettings.TxNode.ReadStore.Scheme)
	assert.Equal(t, "exponential", tSettings.DataNode.Backoff)
	assert.Equal(t, 0, tSettings.DataNode.MaxReconnectAttempts)
}

func TestKafkaURL(t *testing.T) {
	t.Run("no hosts", func(t *testing.T) {
		k := &KafkaSettings{Topic: "txns"}
		assert.Nil(t, k.URL())
	})

	t.Run("hosts", func(t *testing.T) {
		k := &KafkaSettings{Hosts: []string{"b1:9092", "b2:9092"}, Topic: "txns", Partitions: 3, ReplicationFactor: 2}

		u := k.URL()
		require.NotNil(t, u)
		assert.Equal(t, "kafka://b1:9092,b2:9092/txns?partitions=3&replication=2", u.String())
	})
}

func TestStateDefaults(t *testing.T) {
	tSettings := NewSettings()

	require.NotNil(t, tSettings.State)
	assert.Equal(t, "memory", tSettings.State.Store.Scheme)
	assert.Equal(t, ":8092", tSettings.State.HTTPListenAddress)
}
