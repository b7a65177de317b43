// Package lifecycle maps transaction URIs to and from the URIs that record their processing stage.
//
//	txn://<path>
//	validated://<nodeId>/<protocol>/<path>
//	included://<blockProtocol>/<blockPath>/txn/<txnPath>
//	confirmed://<chainId>/<protocol>/<path>
//
// Included URIs join the block and transaction parts at the first "/txn/", so the block path may
// not contain a "txn" segment and the transaction must use the txn scheme.
package lifecycle

import (
	"strings"

	"github.com/bsv-blockchain/txgate/errors"
)

type Stage string

const (
	StageTxn       Stage = "txn"
	StageValidated Stage = "validated"
	StageIncluded  Stage = "included"
	StageConfirmed Stage = "confirmed"
)

const txnBoundary = "/txn/"

// Info is the result of parsing a lifecycle URI.
type Info struct {
	Stage    Stage
	TxnURI   string
	NodeID   string
	BlockURI string
	ChainID  string
}

func ValidatedURI(nodeID, txnURI string) (string, error) {
	if err := checkSegment("node id", nodeID); err != nil {
		return "", err
	}

	proto, path, err := split(txnURI)
	if err != nil {
		return "", err
	}

	return string(StageValidated) + "://" + nodeID + "/" + proto + "/" + path, nil
}

func IncludedURI(blockURI, txnURI string) (string, error) {
	blockProto, blockPath, err := split(blockURI)
	if err != nil {
		return "", err
	}

	for _, segment := range strings.Split(blockPath, "/") {
		if segment == "txn" {
			return "", errors.NewInvalidLifecycleURIError("block uri %q may not contain a txn segment", blockURI)
		}
	}

	proto, path, err := split(txnURI)
	if err != nil {
		return "", err
	}

	if proto != string(StageTxn) {
		return "", errors.NewInvalidLifecycleURIError("included uris need a txn:// transaction, got %q", txnURI)
	}

	return string(StageIncluded) + "://" + blockProto + "/" + blockPath + txnBoundary + path, nil
}

func ConfirmedURI(chainID, txnURI string) (string, error) {
	if err := checkSegment("chain id", chainID); err != nil {
		return "", err
	}

	proto, path, err := split(txnURI)
	if err != nil {
		return "", err
	}

	return string(StageConfirmed) + "://" + chainID + "/" + proto + "/" + path, nil
}

// Parse recognises txn, validated, included and confirmed URIs. Anything else,
// or a malformed lifecycle URI, returns false.
func Parse(uri string) (*Info, bool) {
	scheme, body, found := strings.Cut(uri, "://")
	if !found || body == "" {
		return nil, false
	}

	switch Stage(scheme) {
	case StageTxn:
		return &Info{Stage: StageTxn, TxnURI: uri}, true

	case StageValidated:
		nodeID, txnURI, ok := splitPrefixed(body)
		if !ok {
			return nil, false
		}

		return &Info{Stage: StageValidated, NodeID: nodeID, TxnURI: txnURI}, true

	case StageConfirmed:
		chainID, txnURI, ok := splitPrefixed(body)
		if !ok {
			return nil, false
		}

		return &Info{Stage: StageConfirmed, ChainID: chainID, TxnURI: txnURI}, true

	case StageIncluded:
		blockProto, rest, ok := strings.Cut(body, "/")
		if !ok || blockProto == "" {
			return nil, false
		}

		idx := strings.Index(rest, txnBoundary)
		if idx <= 0 {
			return nil, false
		}

		txnPath := rest[idx+len(txnBoundary):]
		if txnPath == "" {
			return nil, false
		}

		return &Info{
			Stage:    StageIncluded,
			BlockURI: blockProto + "://" + rest[:idx],
			TxnURI:   string(StageTxn) + "://" + txnPath,
		}, true

	default:
		return nil, false
	}
}

// splitPrefixed splits "<id>/<protocol>/<path>" into id and protocol://path.
func splitPrefixed(body string) (string, string, bool) {
	parts := strings.SplitN(body, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}

	return parts[0], parts[1] + "://" + parts[2], true
}

func split(uri string) (string, string, error) {
	proto, path, found := strings.Cut(uri, "://")
	if !found || proto == "" || path == "" || strings.Contains(proto, "/") {
		return "", "", errors.NewInvalidLifecycleURIError("%q is not a <protocol>://<path> uri", uri)
	}

	return proto, path, nil
}

func checkSegment(name, value string) error {
	if value == "" || strings.Contains(value, "/") {
		return errors.NewInvalidLifecycleURIError("%s %q must be a single non-empty path segment", name, value)
	}

	return nil
}
