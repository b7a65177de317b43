package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockProducer(t *testing.T) *mocks.SyncProducer {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true

	return mocks.NewSyncProducer(t, config)
}

func TestProducer_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes uri and data", func(t *testing.T) {
		mp := mockProducer(t)
		mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			tx, err := model.DecodeTransaction(val)
			if err != nil {
				return err
			}

			if tx.URI != "txn://alice/1" {
				return errors.NewProcessingError("unexpected uri %s", tx.URI)
			}

			return nil
		})

		p := NewProducerWithSyncProducer(ulogger.TestLogger{}, "kafka:txns", "txns", mp)

		record, err := p.Write(ctx, "txn://alice/1", map[string]any{"value": "hello"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"value": "hello"}, record.Data)
		assert.False(t, record.TS.IsZero())

		assert.Equal(t, "kafka:txns", p.Name())
		assert.Equal(t, uint64(1), p.Sent())
		assert.Equal(t, health.Healthy, p.Health(ctx).Status)

		require.NoError(t, p.Close(ctx))
	})

	t.Run("send failure", func(t *testing.T) {
		mp := mockProducer(t)
		mp.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

		p := NewProducerWithSyncProducer(ulogger.TestLogger{}, "kafka:txns", "txns", mp)

		_, err := p.Write(ctx, "txn://alice/1", "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrKafka))

		report := p.Health(ctx)
		assert.Equal(t, health.Unhealthy, report.Status)
		assert.Contains(t, report.Message, "last send failed")
		assert.Equal(t, uint64(0), p.Sent())

		require.NoError(t, p.Close(ctx))
	})

	t.Run("recovers after a successful send", func(t *testing.T) {
		mp := mockProducer(t)
		mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
		mp.ExpectSendMessageAndSucceed()

		p := NewProducerWithSyncProducer(ulogger.TestLogger{}, "kafka:txns", "txns", mp)

		_, err := p.Write(ctx, "txn://alice/1", "x")
		require.Error(t, err)

		_, err = p.Write(ctx, "txn://alice/2", "y")
		require.NoError(t, err)
		assert.Equal(t, health.Healthy, p.Health(ctx).Status)

		require.NoError(t, p.Close(ctx))
	})

	t.Run("cancelled context does not send", func(t *testing.T) {
		mp := mockProducer(t)
		p := NewProducerWithSyncProducer(ulogger.TestLogger{}, "kafka:txns", "txns", mp)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := p.Write(cancelled, "txn://alice/1", "x")
		require.Error(t, err)
		assert.True(t, errors.IsContextError(err))

		require.NoError(t, p.Close(ctx))
	})

	t.Run("closed producer", func(t *testing.T) {
		mp := mockProducer(t)
		p := NewProducerWithSyncProducer(ulogger.TestLogger{}, "kafka:txns", "txns", mp)

		require.NoError(t, p.Close(ctx))
		require.NoError(t, p.Close(ctx))

		_, err := p.Write(ctx, "txn://alice/1", "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
		assert.Equal(t, health.Unhealthy, p.Health(ctx).Status)
	})
}
