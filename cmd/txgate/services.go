package main

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/services/datanode"
	"github.com/bsv-blockchain/txgate/services/txnode"
	"github.com/bsv-blockchain/txgate/services/validator"
	"github.com/bsv-blockchain/txgate/settings"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
	"github.com/bsv-blockchain/txgate/util/kafka"
	"github.com/bsv-blockchain/txgate/util/retry"
)

func parseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid url %q", s, err)
	}

	return u, nil
}

// nodeValidator builds the validator of a configured node: the ledger rules when ledger prefixes are set,
// structural checks otherwise.
func nodeValidator(s *settings.TxNodeSettings) validator.Validator {
	if len(s.SchemaPrefixes) == 0 && s.FeePrefix == "" {
		return validator.Instrument("structural", validator.Structural())
	}

	cfg := validator.LedgerConfig{
		Prefixes:  s.SchemaPrefixes,
		FeePrefix: s.FeePrefix,
		MinFee:    float64(s.MinFee),
	}

	if s.VerifySignatures {
		cfg.Verify = validator.VerifyECDSA
	}

	return validator.Ledger(cfg)
}

// buildPeers opens a peer per configured url plus the kafka peer when kafka hosts are configured.
// Peers opened before a failure are closed again.
func buildPeers(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings) ([]txnode.Peer, error) {
	urls := make([]*url.URL, 0, len(tSettings.TxNode.Peers)+1)

	for _, p := range tSettings.TxNode.Peers {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}

		u, err := parseURL(p)
		if err != nil {
			return nil, err
		}

		urls = append(urls, u)
	}

	if u := tSettings.Kafka.URL(); u != nil {
		urls = append(urls, u)
	}

	peers := make([]txnode.Peer, 0, len(urls))

	for _, u := range urls {
		peer, err := openPeer(ctx, logger, u)
		if err != nil {
			for _, p := range peers {
				_ = p.Close(ctx)
			}

			return nil, err
		}

		peers = append(peers, peer)
	}

	return peers, nil
}

// openPeer connects a peer. Kafka brokers that are still starting are retried with backoff.
func openPeer(ctx context.Context, logger ulogger.Logger, u *url.URL) (txnode.Peer, error) {
	if u.Scheme == "kafka" {
		producer, err := retry.Retry(ctx, logger, func() (*kafka.Producer, error) {
			return kafka.NewProducer(logger, u)
		},
			retry.WithRetryCount(5),
			retry.WithExponentialBackoff(),
			retry.WithBackoffDurationType(time.Second),
			retry.WithMaxBackoff(10*time.Second),
			retry.WithRetryIf(errors.IsRetryableError),
			retry.WithMessage("[TxNode] kafka peer "+u.Host+" unavailable"),
		)
		if err != nil {
			return nil, err
		}

		return producer, nil
	}

	store, err := state.New(logger, u)
	if err != nil {
		return nil, err
	}

	return txnode.PeerFromStore(u.Redacted(), store), nil
}

// buildSources turns data node endpoints into sources, kafka:// urls into kafka sources and everything
// else into websocket sources.
func buildSources(logger ulogger.Logger, endpoints []string) ([]datanode.Source, error) {
	sources := make([]datanode.Source, 0, len(endpoints))

	for _, endpoint := range endpoints {
		if endpoint = strings.TrimSpace(endpoint); endpoint == "" {
			continue
		}

		if strings.HasPrefix(endpoint, "kafka://") {
			u, err := parseURL(endpoint)
			if err != nil {
				return nil, err
			}

			source, err := datanode.NewKafkaSource(logger, u)
			if err != nil {
				return nil, err
			}

			sources = append(sources, source)

			continue
		}

		source, err := datanode.NewWebSocketSource(logger, endpoint)
		if err != nil {
			return nil, err
		}

		sources = append(sources, source)
	}

	if len(sources) == 0 {
		return nil, errors.NewConfigurationError("datanode_endpoints is empty")
	}

	return sources, nil
}

// nodeService runs a transaction node and its HTTP transport.
type nodeService struct {
	logger      ulogger.Logger
	tSettings   *settings.Settings
	materialize bool
	node        *txnode.Node
	server      *txnode.HTTPServer
}

func newNodeService(logger ulogger.Logger, tSettings *settings.Settings, materialize bool) *nodeService {
	return &nodeService{
		logger:      logger,
		tSettings:   tSettings,
		materialize: materialize,
	}
}

func (s *nodeService) Init(ctx context.Context) error {
	s.logger.Infof("[TxNode] read store %s", s.tSettings.TxNode.ReadStore.Redacted())

	readStore, err := state.New(s.logger, s.tSettings.TxNode.ReadStore)
	if err != nil {
		return err
	}

	peers, err := buildPeers(ctx, s.logger, s.tSettings)
	if err != nil {
		_ = readStore.Close(ctx)
		return err
	}

	if s.materialize {
		materializer, err := datanode.ParseMaterializers("utxo", s.tSettings.TxNode.SchemaPrefixes...)
		if err != nil {
			_ = readStore.Close(ctx)
			return err
		}

		peers = append(peers, datanode.AsPeer("read-store", readStore, materializer))
	}

	s.node, err = txnode.New(s.logger, s.tSettings, readStore, nodeValidator(s.tSettings.TxNode), peers)
	if err != nil {
		for _, p := range peers {
			_ = p.Close(ctx)
		}

		_ = readStore.Close(ctx)

		return err
	}

	var opts []txnode.HTTPOption
	if s.tSettings.TxNode.MaxSubmitRate > 0 {
		opts = append(opts, txnode.WithRateLimit(s.tSettings.TxNode.MaxSubmitRate, s.tSettings.TxNode.SubmitBurst))
	}

	s.server = txnode.NewHTTPServer(s.logger, s.node, opts...)

	return nil
}

func (s *nodeService) Start(ctx context.Context, readyCh chan<- struct{}) error {
	close(readyCh)

	return s.server.Start(ctx, s.tSettings.TxNode.HTTPListenAddress)
}

func (s *nodeService) Stop(ctx context.Context) error {
	return errors.Join(s.server.Stop(ctx), s.node.Cleanup(ctx))
}

func (s *nodeService) Health(ctx context.Context) health.Report {
	h := s.node.Health(ctx)

	return health.Report{Status: h.Status}
}

// dataNodeService runs a data node and its HTTP read API.
type dataNodeService struct {
	logger    ulogger.Logger
	tSettings *settings.Settings
	node      *datanode.DataNode
	server    *datanode.HTTPServer
}

func newDataNodeService(logger ulogger.Logger, tSettings *settings.Settings) *dataNodeService {
	return &dataNodeService{
		logger:    logger,
		tSettings: tSettings,
	}
}

func (s *dataNodeService) Init(ctx context.Context) error {
	sources, err := buildSources(s.logger, s.tSettings.DataNode.Endpoints)
	if err != nil {
		return err
	}

	materializer, err := datanode.ParseMaterializers(s.tSettings.DataNode.Materializer, s.tSettings.TxNode.SchemaPrefixes...)
	if err != nil {
		return err
	}

	store, err := state.New(s.logger, s.tSettings.DataNode.Store)
	if err != nil {
		return err
	}

	s.node, err = datanode.New(s.logger, s.tSettings, store, sources, materializer)
	if err != nil {
		_ = store.Close(ctx)
		return err
	}

	s.server = datanode.NewHTTPServer(s.logger, s.node)

	return nil
}

func (s *dataNodeService) Start(ctx context.Context, readyCh chan<- struct{}) error {
	if err := s.node.Start(ctx); err != nil {
		return err
	}

	close(readyCh)

	return s.server.Start(ctx, s.tSettings.DataNode.HTTPListenAddress)
}

func (s *dataNodeService) Stop(ctx context.Context) error {
	return errors.Join(s.server.Stop(ctx), s.node.Cleanup(ctx))
}

func (s *dataNodeService) Health(ctx context.Context) health.Report {
	h := s.node.Health(ctx)

	return health.Report{Status: h.Status, Message: h.LastError}
}

// stateService serves a state store for nodes configured with an http:// store url.
type stateService struct {
	logger    ulogger.Logger
	tSettings *settings.StateSettings
	store     state.Store
	server    *state.Server
}

func newStateService(logger ulogger.Logger, tSettings *settings.StateSettings) *stateService {
	return &stateService{
		logger:    logger,
		tSettings: tSettings,
	}
}

func (s *stateService) Init(context.Context) error {
	store, err := state.New(s.logger, s.tSettings.Store)
	if err != nil {
		return err
	}

	s.store = store
	s.server = state.NewServer(s.logger, store)

	return nil
}

func (s *stateService) Start(ctx context.Context, readyCh chan<- struct{}) error {
	close(readyCh)

	return s.server.Start(ctx, s.tSettings.HTTPListenAddress)
}

func (s *stateService) Stop(ctx context.Context) error {
	return errors.Join(s.server.Stop(ctx), s.store.Close(ctx))
}

func (s *stateService) Health(ctx context.Context) health.Report {
	return s.store.Health(ctx)
}
