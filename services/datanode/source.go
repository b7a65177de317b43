package datanode

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/services/txnode"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/kafka"
	"github.com/gorilla/websocket"
)

// Source is a transaction stream endpoint.
type Source interface {
	Name() string
	// Open connects to the endpoint. The returned stream is closed by the data node.
	Open(ctx context.Context) (Stream, error)
}

// Stream yields transactions until the connection is lost.
type Stream interface {
	Next(ctx context.Context) (model.Transaction, error)
	Close() error
}

// WebSocketSource reads the /subscribe stream of a transaction node.
type WebSocketSource struct {
	logger ulogger.Logger
	url    string
	dialer *websocket.Dialer
}

// NewWebSocketSource accepts ws(s):// or http(s):// endpoints; a missing path means /subscribe.
func NewWebSocketSource(logger ulogger.Logger, endpoint string) (*WebSocketSource, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid websocket endpoint %q", endpoint, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, errors.NewConfigurationError("unsupported websocket endpoint scheme %q", u.Scheme)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/subscribe"
	}

	return &WebSocketSource{
		logger: logger,
		url:    u.String(),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

func (s *WebSocketSource) Name() string {
	return s.url
}

func (s *WebSocketSource) Open(ctx context.Context) (Stream, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, errors.NewNetworkError("failed to connect to %s", s.url, err)
	}

	return &webSocketStream{logger: s.logger, url: s.url, conn: conn}, nil
}

type webSocketStream struct {
	logger ulogger.Logger
	url    string
	conn   *websocket.Conn
}

// Next skips frames that are not [uri, data] transactions.
func (s *webSocketStream) Next(ctx context.Context) (model.Transaction, error) {
	for {
		stop := context.AfterFunc(ctx, func() {
			_ = s.conn.SetReadDeadline(time.Now())
		})

		_, msg, err := s.conn.ReadMessage()

		stop()

		if err != nil {
			if ctx.Err() != nil {
				return model.Transaction{}, ctx.Err()
			}

			return model.Transaction{}, errors.NewNetworkError("websocket %s read failed", s.url, err)
		}

		tx, err := model.DecodeTransaction(msg)
		if err != nil {
			s.logger.Warnf("[WebSocketSource][%s] skipping frame: %v", s.url, err)
			continue
		}

		return tx, nil
	}
}

func (s *webSocketStream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	return s.conn.Close()
}

// KafkaSource consumes the topic a kafka peer publishes to.
type KafkaSource struct {
	logger      ulogger.Logger
	name        string
	topic       string
	offset      int64
	newConsumer func() (sarama.Consumer, error)
	kafkaURL    *url.URL
}

func NewKafkaSource(logger ulogger.Logger, kafkaURL *url.URL) (*KafkaSource, error) {
	cfg, err := kafka.ParseURL(kafkaURL)
	if err != nil {
		return nil, err
	}

	return &KafkaSource{
		logger:   logger,
		name:     "kafka:" + strings.Join(cfg.Brokers, ",") + "/" + cfg.Topic,
		topic:    cfg.Topic,
		offset:   cfg.Offset,
		kafkaURL: kafkaURL,
	}, nil
}

// NewKafkaSourceWithConsumer builds a source over consumers made by newConsumer, one per connection.
func NewKafkaSourceWithConsumer(logger ulogger.Logger, name, topic string, offset int64,
	newConsumer func() (sarama.Consumer, error)) *KafkaSource {
	return &KafkaSource{
		logger:      logger,
		name:        name,
		topic:       topic,
		offset:      offset,
		newConsumer: newConsumer,
	}
}

func (s *KafkaSource) Name() string {
	return s.name
}

func (s *KafkaSource) Open(_ context.Context) (Stream, error) {
	if s.newConsumer == nil {
		return kafka.NewConsumer(s.logger, s.kafkaURL)
	}

	consumer, err := s.newConsumer()
	if err != nil {
		return nil, errors.NewKafkaError("failed to create consumer for %s", s.name, err)
	}

	return kafka.NewConsumerWithSaramaConsumer(s.logger, s.topic, consumer, s.offset)
}

// LocalSource subscribes to a transaction node in the same process.
type LocalSource struct {
	node   *txnode.Node
	filter model.Filter
}

func NewLocalSource(node *txnode.Node, filter model.Filter) *LocalSource {
	return &LocalSource{node: node, filter: filter}
}

func (s *LocalSource) Name() string {
	return "local"
}

func (s *LocalSource) Open(ctx context.Context) (Stream, error) {
	if s.node.Closed() {
		return nil, errors.NewServiceUnavailableError("local node is closed")
	}

	sub := s.node.Subscribe(ctx, s.filter)

	return &localStream{sub: sub}, nil
}

type localStream struct {
	sub *txnode.Subscription
}

func (s *localStream) Next(ctx context.Context) (model.Transaction, error) {
	select {
	case <-ctx.Done():
		return model.Transaction{}, ctx.Err()
	case tx, ok := <-s.sub.C:
		if !ok {
			return model.Transaction{}, errors.NewSubscriptionClosedError("local node subscription ended")
		}

		return tx, nil
	}
}

func (s *localStream) Close() error {
	s.sub.Unsubscribe()
	return nil
}
