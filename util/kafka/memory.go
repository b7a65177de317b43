package kafka

import (
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/bsv-blockchain/txgate/errors"
	"go.uber.org/atomic"
)

// MemoryBroker is an in-process stand-in for a Kafka cluster. Every topic has a single
// partition and keeps all messages, so consumers may start from the oldest offset.
type MemoryBroker struct {
	mu     sync.Mutex
	topics map[string]*memoryTopic
}

type memoryTopic struct {
	messages []*sarama.ConsumerMessage
	// notify is closed and replaced on every produce
	notify chan struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]*memoryTopic)}
}

// topicLocked expects b.mu to be held.
func (b *MemoryBroker) topicLocked(name string) *memoryTopic {
	t, ok := b.topics[name]
	if !ok {
		t = &memoryTopic{notify: make(chan struct{})}
		b.topics[name] = t
	}

	return t
}

func (b *MemoryBroker) produce(topic string, key, value []byte) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topicLocked(topic)

	offset := int64(len(t.messages))
	t.messages = append(t.messages, &sarama.ConsumerMessage{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Offset:    offset,
		Timestamp: time.Now(),
	})

	close(t.notify)
	t.notify = make(chan struct{})

	return offset
}

// fetch returns the message at offset, or a channel that is closed once more messages arrive.
func (b *MemoryBroker) fetch(topic string, offset int64) (*sarama.ConsumerMessage, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topicLocked(topic)

	if offset < int64(len(t.messages)) {
		return t.messages[offset], nil
	}

	return nil, t.notify
}

// Len returns how many messages a topic holds.
func (b *MemoryBroker) Len(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[topic]; ok {
		return len(t.messages)
	}

	return 0
}

func (b *MemoryBroker) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	topics := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		topics = append(topics, topic)
	}

	return topics
}

// SyncProducer returns a sarama.SyncProducer writing to this broker.
func (b *MemoryBroker) SyncProducer() sarama.SyncProducer {
	return &memorySyncProducer{broker: b}
}

// Consumer returns a sarama.Consumer reading from this broker.
func (b *MemoryBroker) Consumer() sarama.Consumer {
	return &memoryConsumer{broker: b}
}

var errNotTransactional = errors.NewKafkaError("in-memory producer is not transactional")

type memorySyncProducer struct {
	broker *MemoryBroker
	closed atomic.Bool
}

func (p *memorySyncProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if p.closed.Load() {
		return -1, -1, sarama.ErrClosedClient
	}

	var key []byte

	if msg.Key != nil {
		var err error

		if key, err = msg.Key.Encode(); err != nil {
			return -1, -1, errors.NewKafkaError("failed to encode key", err)
		}
	}

	var value []byte

	if msg.Value != nil {
		var err error

		if value, err = msg.Value.Encode(); err != nil {
			return -1, -1, errors.NewKafkaError("failed to encode value", err)
		}
	}

	offset := p.broker.produce(msg.Topic, key, value)
	msg.Offset = offset

	return 0, offset, nil
}

func (p *memorySyncProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	for _, msg := range msgs {
		if _, _, err := p.SendMessage(msg); err != nil {
			return err
		}
	}

	return nil
}

func (p *memorySyncProducer) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *memorySyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnFlagReady
}

func (p *memorySyncProducer) IsTransactional() bool { return false }
func (p *memorySyncProducer) BeginTxn() error       { return errNotTransactional }
func (p *memorySyncProducer) CommitTxn() error      { return errNotTransactional }
func (p *memorySyncProducer) AbortTxn() error       { return errNotTransactional }

func (p *memorySyncProducer) AddOffsetsToTxn(map[string][]*sarama.PartitionOffsetMetadata, string) error {
	return errNotTransactional
}

func (p *memorySyncProducer) AddMessageToTxn(*sarama.ConsumerMessage, string, *string) error {
	return errNotTransactional
}

type memoryConsumer struct {
	broker *MemoryBroker
}

func (c *memoryConsumer) Topics() ([]string, error) {
	return c.broker.Topics(), nil
}

func (c *memoryConsumer) Partitions(string) ([]int32, error) {
	return []int32{0}, nil
}

func (c *memoryConsumer) ConsumePartition(topic string, partition int32, offset int64) (sarama.PartitionConsumer, error) {
	if partition != 0 {
		return nil, sarama.ErrUnknownTopicOrPartition
	}

	switch offset {
	case sarama.OffsetOldest:
		offset = 0
	case sarama.OffsetNewest:
		offset = int64(c.broker.Len(topic))
	}

	pc := &memoryPartitionConsumer{
		broker:   c.broker,
		topic:    topic,
		next:     offset,
		messages: make(chan *sarama.ConsumerMessage),
		closing:  make(chan struct{}),
	}

	go pc.run()

	return pc, nil
}

func (c *memoryConsumer) HighWaterMarks() map[string]map[int32]int64 {
	marks := make(map[string]map[int32]int64)
	for _, topic := range c.broker.Topics() {
		marks[topic] = map[int32]int64{0: int64(c.broker.Len(topic))}
	}

	return marks
}

func (c *memoryConsumer) Close() error              { return nil }
func (c *memoryConsumer) Pause(map[string][]int32)  {}
func (c *memoryConsumer) Resume(map[string][]int32) {}
func (c *memoryConsumer) PauseAll()                 {}
func (c *memoryConsumer) ResumeAll()                {}

type memoryPartitionConsumer struct {
	broker    *MemoryBroker
	topic     string
	next      int64
	messages  chan *sarama.ConsumerMessage
	closing   chan struct{}
	closeOnce sync.Once
	paused    atomic.Bool
}

func (pc *memoryPartitionConsumer) run() {
	defer close(pc.messages)

	for {
		if pc.paused.Load() {
			select {
			case <-pc.closing:
				return
			case <-time.After(10 * time.Millisecond):
				continue
			}
		}

		msg, wait := pc.broker.fetch(pc.topic, pc.next)
		if msg == nil {
			select {
			case <-wait:
				continue
			case <-pc.closing:
				return
			}
		}

		select {
		case pc.messages <- msg:
			pc.next++
		case <-pc.closing:
			return
		}
	}
}

func (pc *memoryPartitionConsumer) Messages() <-chan *sarama.ConsumerMessage {
	return pc.messages
}

// Errors returns nil, the in-memory partition never fails.
func (pc *memoryPartitionConsumer) Errors() <-chan *sarama.ConsumerError {
	return nil
}

func (pc *memoryPartitionConsumer) AsyncClose() {
	pc.closeOnce.Do(func() {
		close(pc.closing)
	})
}

func (pc *memoryPartitionConsumer) Close() error {
	pc.AsyncClose()
	return nil
}

func (pc *memoryPartitionConsumer) HighWaterMarkOffset() int64 {
	return int64(pc.broker.Len(pc.topic))
}

func (pc *memoryPartitionConsumer) Pause()         { pc.paused.Store(true) }
func (pc *memoryPartitionConsumer) Resume()        { pc.paused.Store(false) }
func (pc *memoryPartitionConsumer) IsPaused() bool { return pc.paused.Load() }
