package settings

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Settings struct {
	ClientName string
	LogLevel   string
	LoggerType string
	TxNode     *TxNodeSettings
	DataNode   *DataNodeSettings
	Kafka      *KafkaSettings
	State      *StateSettings
}

type TxNodeSettings struct {
	NodeID              string
	HTTPListenAddress   string
	ReadStore           *url.URL
	Peers               []string
	ValidationTimeout   time.Duration
	PropagationTimeout  time.Duration
	AwaitPropagation    bool
	SerializeValidation bool
	SubscriberBuffer    int
	MaxSubmitRate       int
	SubmitBurst         int
	// SchemaPrefixes lists the output namespaces the demo node guards with UTXO rules.
	SchemaPrefixes   []string
	FeePrefix        string
	MinFee           int
	VerifySignatures bool
}

type DataNodeSettings struct {
	Endpoints            []string
	Store                *url.URL
	FilterPrefix         string
	FilterPattern        string
	Materializer         string
	Backoff              string
	BackoffInitial       time.Duration
	BackoffMax           time.Duration
	MaxReconnectAttempts int
	HTTPListenAddress    string
}

type KafkaSettings struct {
	Hosts             []string
	Topic             string
	Partitions        int
	ReplicationFactor int
}

// URL is the kafka:// form of the settings, nil when no hosts are configured.
func (k *KafkaSettings) URL() *url.URL {
	if k == nil || len(k.Hosts) == 0 {
		return nil
	}

	query := url.Values{}
	query.Set("partitions", strconv.Itoa(k.Partitions))
	query.Set("replication", strconv.Itoa(k.ReplicationFactor))

	return &url.URL{
		Scheme:   "kafka",
		Host:     strings.Join(k.Hosts, ","),
		Path:     "/" + k.Topic,
		RawQuery: query.Encode(),
	}
}

// StateSettings configure a standalone state server.
type StateSettings struct {
	Store             *url.URL
	HTTPListenAddress string
}
