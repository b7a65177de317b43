package settings

import "time"

func NewSettings() *Settings {
	return &Settings{
		ClientName: getString("clientName", "txgate"),
		LogLevel:   getString("logLevel", "INFO"),
		LoggerType: getString("logger_type", "zerolog"),
		TxNode: &TxNodeSettings{
			NodeID:              getString("txnode_id", "node1"),
			HTTPListenAddress:   getString("txnode_httpListenAddress", ":8090"),
			ReadStore:           getURL("txnode_readStore", "memory://"),
			Peers:               getList("txnode_peers"),
			ValidationTimeout:   getDuration("txnode_validationTimeout", 30*time.Second),
			PropagationTimeout:  getDuration("txnode_propagationTimeout", 5*time.Second),
			AwaitPropagation:    getBool("txnode_awaitPropagation", false),
			SerializeValidation: getBool("txnode_serializeValidation", false),
			SubscriberBuffer:    getInt("txnode_subscriberBuffer", 64),
			MaxSubmitRate:       getInt("txnode_maxSubmitRate", 0),
			SubmitBurst:         getInt("txnode_submitBurst", 100),
			SchemaPrefixes:      getList("txnode_utxoPrefixes"),
			FeePrefix:           getString("txnode_feePrefix", ""),
			MinFee:              getInt("txnode_minFee", 0),
			VerifySignatures:    getBool("txnode_verifySignatures", false),
		},
		DataNode: &DataNodeSettings{
			Endpoints:            getList("datanode_endpoints"),
			Store:                getURL("datanode_store", "memory://"),
			FilterPrefix:         getString("datanode_filterPrefix", ""),
			FilterPattern:        getString("datanode_filterPattern", ""),
			Materializer:         getString("datanode_materializer", "utxo"),
			Backoff:              getString("datanode_backoff", "exponential"),
			BackoffInitial:       getDuration("datanode_backoffInitial", time.Second),
			BackoffMax:           getDuration("datanode_backoffMax", 30*time.Second),
			MaxReconnectAttempts: getInt("datanode_maxReconnectAttempts", 0),
			HTTPListenAddress:    getString("datanode_httpListenAddress", ":8091"),
		},
		Kafka: &KafkaSettings{
			Hosts:             getList("kafka_hosts"),
			Topic:             getString("kafka_txnTopic", "txns"),
			Partitions:        getInt("kafka_partitions", 1),
			ReplicationFactor: getInt("kafka_replicationFactor", 1),
		},
		State: &StateSettings{
			Store:             getURL("state_store", "memory://"),
			HTTPListenAddress: getString("state_httpListenAddress", ":8092"),
		},
	}
}
