package validator

import (
	"context"
	"encoding/hex"

	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	crypto "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// VerifyFunc reports whether signature is valid for message under publicKey.
type VerifyFunc func(signature, message, publicKey string) bool

type SignatureConfig struct {
	// Verify defaults to VerifyECDSA.
	Verify VerifyFunc
	// ExtractSignature returns the signature and signer public key, ok is false when tx carries none.
	// Defaults to the sig and origin fields of state data.
	ExtractSignature func(tx model.Transaction) (signature, publicKey string, ok bool)
	// ExtractMessage defaults to CanonicalMessage.
	ExtractMessage func(tx model.Transaction) (string, error)
	// Required rejects transactions that carry no signer metadata.
	Required bool
}

// Signature checks the transaction signature. Unsigned transactions pass unless the config requires one.
func Signature(cfg SignatureConfig) Validator {
	if cfg.Verify == nil {
		cfg.Verify = VerifyECDSA
	}

	if cfg.ExtractSignature == nil {
		cfg.ExtractSignature = stateSignature
	}

	if cfg.ExtractMessage == nil {
		cfg.ExtractMessage = CanonicalMessage
	}

	return func(_ context.Context, tx model.Transaction, _ state.Reader) *Result {
		sig, publicKey, ok := cfg.ExtractSignature(tx)
		if !ok {
			if cfg.Required {
				return Invalid(model.CodeInvalidSignature, map[string]any{"reason": "missing signature"})
			}

			return Valid()
		}

		message, err := cfg.ExtractMessage(tx)
		if err != nil {
			return Invalid(model.CodeInvalidSignature, map[string]any{"reason": reason(err)})
		}

		if !cfg.Verify(sig, message, publicKey) {
			return Invalid(model.CodeInvalidSignature, map[string]any{"origin": publicKey})
		}

		return Valid()
	}
}

func stateSignature(tx model.Transaction) (string, string, bool) {
	data, err := model.ParseStateData(tx.Data)
	if err != nil || !data.Signed() {
		return "", "", false
	}

	return data.Sig, data.Origin, true
}

// CanonicalMessage is the JSON encoding of {uri, inputs, outputs} with sorted keys, the bytes a
// state transaction signer signs. Signature fields are excluded.
func CanonicalMessage(tx model.Transaction) (string, error) {
	data, err := model.ParseStateData(tx.Data)
	if err != nil {
		return "", err
	}

	outputs := data.Outputs
	if outputs == nil {
		outputs = []model.Output{}
	}

	inputs := data.Inputs
	if inputs == nil {
		inputs = []string{}
	}

	b, err := json.Marshal(map[string]any{
		"uri":     tx.URI,
		"inputs":  inputs,
		"outputs": outputs,
	})
	if err != nil {
		return "", errors.NewTxnInvalidError("could not encode message", err)
	}

	return string(b), nil
}

// VerifyECDSA verifies a hex DER secp256k1 signature over sha256(message) with a hex encoded public key.
func VerifyECDSA(signature, message, publicKey string) bool {
	pubBytes, err := hex.DecodeString(publicKey)
	if err != nil {
		return false
	}

	pub, err := bec.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	sig, err := bec.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}

	return sig.Verify(crypto.Sha256([]byte(message)), pub)
}

// SignECDSA produces the signature VerifyECDSA accepts.
func SignECDSA(key *bec.PrivateKey, message string) (string, error) {
	sig, err := key.Sign(crypto.Sha256([]byte(message)))
	if err != nil {
		return "", errors.NewProcessingError("failed to sign message", err)
	}

	return hex.EncodeToString(sig.Serialize()), nil
}

// PublicKeyHex is the compressed public key of key, hex encoded, as carried in origin.
func PublicKeyHex(key *bec.PrivateKey) string {
	return hex.EncodeToString(key.PubKey().Compressed())
}
