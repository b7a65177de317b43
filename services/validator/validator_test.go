package validator

import (
	"context"
	"testing"

	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/stores/state/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateTx(uri string, inputs []any, outputs []any, extra map[string]any) model.Transaction {
	data := map[string]any{"inputs": inputs, "outputs": outputs}
	for k, v := range extra {
		data[k] = v
	}

	return model.NewTransaction(uri, data)
}

func utxoStore(t *testing.T, records map[string]model.UTXORecord) *memory.Memory {
	store := memory.New()

	for uri, rec := range records {
		_, err := store.Write(context.Background(), uri, rec)
		require.NoError(t, err)
	}

	return store
}

func TestCombine(t *testing.T) {
	ctx := context.Background()
	tx := model.NewTransaction("txn://alice/1", map[string]any{"value": "hello"})

	called := 0
	counting := func(r *Result) Validator {
		return func(context.Context, model.Transaction, state.Reader) *Result {
			called++
			return r
		}
	}

	t.Run("all valid", func(t *testing.T) {
		called = 0
		r := Combine(counting(Valid()), counting(Valid()))(ctx, tx, memory.New())
		assert.True(t, r.Valid)
		assert.Equal(t, 2, called)
	})

	t.Run("first failure short circuits", func(t *testing.T) {
		called = 0
		failure := Invalid("custom_code", map[string]any{"k": "v"})

		r := Combine(counting(Valid()), counting(failure), counting(Valid()))(ctx, tx, memory.New())
		assert.Same(t, failure, r)
		assert.Equal(t, 2, called)
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, Combine()(ctx, tx, memory.New()).Valid)
	})

	t.Run("nil result is a failure", func(t *testing.T) {
		r := Combine(counting(nil))(ctx, tx, memory.New())
		assert.False(t, r.Valid)
	})
}

func TestAcceptAll(t *testing.T) {
	assert.True(t, AcceptAll()(context.Background(), model.NewTransaction("txn://a", nil), nil).Valid)
}

func TestWithDetailCopies(t *testing.T) {
	original := Invalid("x", map[string]any{"a": 1})
	annotated := original.WithDetail("b", 2)

	assert.Equal(t, map[string]any{"a": 1}, original.Details)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, annotated.Details)
	assert.Equal(t, "x", annotated.Error)
}

func TestStructural(t *testing.T) {
	ctx := context.Background()
	v := Structural()

	tests := []struct {
		name  string
		data  any
		valid bool
	}{
		{"inputs and outputs", map[string]any{"inputs": []any{}, "outputs": []any{}}, true},
		{"typed", &model.StateData{Inputs: []string{}, Outputs: []model.Output{}}, true},
		{"missing inputs", map[string]any{"outputs": []any{}}, false},
		{"missing outputs", map[string]any{"inputs": []any{}}, false},
		{"inputs not array", map[string]any{"inputs": "utxo://a/1", "outputs": []any{}}, false},
		{"outputs not array", map[string]any{"inputs": []any{}, "outputs": map[string]any{}}, false},
		{"not an object", "hello", false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := v(ctx, model.NewTransaction("txn://a/1", tt.data), nil)
			assert.Equal(t, tt.valid, r.Valid)

			if !tt.valid {
				assert.Equal(t, model.CodeInvalidTransactionData, r.Error)
				assert.NotEmpty(t, r.Details["reason"])
			}
		})
	}
}

func TestSignature(t *testing.T) {
	ctx := context.Background()

	key, err := bec.NewPrivateKey()
	require.NoError(t, err)

	unsigned := stateTx("txn://alice/1", []any{"utxo://alice/1"}, []any{[]any{"utxo://bob/1", 100.0}}, nil)

	message, err := CanonicalMessage(unsigned)
	require.NoError(t, err)

	sig, err := SignECDSA(key, message)
	require.NoError(t, err)

	signed := stateTx("txn://alice/1", []any{"utxo://alice/1"}, []any{[]any{"utxo://bob/1", 100.0}},
		map[string]any{"origin": PublicKeyHex(key), "sig": sig})

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, Signature(SignatureConfig{})(ctx, signed, nil).Valid)
	})

	t.Run("tampered outputs", func(t *testing.T) {
		tampered := stateTx("txn://alice/1", []any{"utxo://alice/1"}, []any{[]any{"utxo://mallory/1", 100.0}},
			map[string]any{"origin": PublicKeyHex(key), "sig": sig})

		r := Signature(SignatureConfig{})(ctx, tampered, nil)
		assert.False(t, r.Valid)
		assert.Equal(t, model.CodeInvalidSignature, r.Error)
	})

	t.Run("unsigned skipped", func(t *testing.T) {
		assert.True(t, Signature(SignatureConfig{})(ctx, unsigned, nil).Valid)
	})

	t.Run("unsigned required", func(t *testing.T) {
		r := Signature(SignatureConfig{Required: true})(ctx, unsigned, nil)
		assert.Equal(t, model.CodeInvalidSignature, r.Error)
	})

	t.Run("custom verifier and extractors", func(t *testing.T) {
		var got []string

		v := Signature(SignatureConfig{
			Verify: func(signature, message, publicKey string) bool {
				got = []string{signature, message, publicKey}
				return signature == "ok"
			},
			ExtractSignature: func(tx model.Transaction) (string, string, bool) {
				return tx.Data.(map[string]any)["s"].(string), "pk", true
			},
			ExtractMessage: func(tx model.Transaction) (string, error) {
				return tx.URI, nil
			},
		})

		assert.True(t, v(ctx, model.NewTransaction("txn://x", map[string]any{"s": "ok"}), nil).Valid)
		assert.Equal(t, []string{"ok", "txn://x", "pk"}, got)
		assert.False(t, v(ctx, model.NewTransaction("txn://x", map[string]any{"s": "bad"}), nil).Valid)
	})

	t.Run("message error", func(t *testing.T) {
		v := Signature(SignatureConfig{
			ExtractSignature: func(model.Transaction) (string, string, bool) { return "s", "p", true },
			ExtractMessage: func(model.Transaction) (string, error) {
				return "", errors.NewProcessingError("no message")
			},
		})

		r := v(ctx, unsigned, nil)
		assert.Equal(t, model.CodeInvalidSignature, r.Error)
		assert.Equal(t, "no message", r.Details["reason"])
	})
}

func TestVerifyECDSARejectsGarbage(t *testing.T) {
	key, err := bec.NewPrivateKey()
	require.NoError(t, err)

	sig, err := SignECDSA(key, "hello")
	require.NoError(t, err)

	assert.True(t, VerifyECDSA(sig, "hello", PublicKeyHex(key)))
	assert.False(t, VerifyECDSA(sig, "hello!", PublicKeyHex(key)))
	assert.False(t, VerifyECDSA("zz", "hello", PublicKeyHex(key)))
	assert.False(t, VerifyECDSA(sig, "hello", "zz"))
	assert.False(t, VerifyECDSA("00", "hello", PublicKeyHex(key)))
	assert.False(t, VerifyECDSA(sig, "hello", "02"))
}

func TestCanonicalMessageIsStable(t *testing.T) {
	a := stateTx("txn://a/1", []any{"utxo://a/1"}, []any{[]any{"utxo://b/1", 1.0}}, map[string]any{"sig": "x", "origin": "y"})
	b := model.NewTransaction("txn://a/1", &model.StateData{
		Inputs:  []string{"utxo://a/1"},
		Outputs: []model.Output{{URI: "utxo://b/1", Value: 1.0}},
	})

	ma, err := CanonicalMessage(a)
	require.NoError(t, err)

	mb, err := CanonicalMessage(b)
	require.NoError(t, err)

	assert.Equal(t, ma, mb)
	assert.Equal(t, `{"inputs":["utxo://a/1"],"outputs":[["utxo://b/1",1]],"uri":"txn://a/1"}`, ma)
}

func TestUTXO(t *testing.T) {
	ctx := context.Background()
	store := utxoStore(t, map[string]model.UTXORecord{
		"utxo://alice/1": {Value: 100.0, Owner: "alice"},
		"utxo://alice/2": {Value: 5.0, Owner: "alice", Spent: true, SpentBy: "txn://alice/0"},
		"utxo://bob/1":   {Value: 7.0, Owner: "bob"},
	})
	_, err := store.Write(ctx, "mutable://not/a/utxo", "text")
	require.NoError(t, err)

	spend := func(origin string, inputs ...any) model.Transaction {
		return stateTx("txn://"+origin+"/x", inputs, []any{}, map[string]any{"origin": origin})
	}

	v := UTXO(UTXOConfig{})

	t.Run("owner spends unspent", func(t *testing.T) {
		assert.True(t, v(ctx, spend("alice", "utxo://alice/1"), store).Valid)
	})

	t.Run("missing", func(t *testing.T) {
		r := v(ctx, spend("alice", "utxo://alice/9"), store)
		assert.Equal(t, model.CodeInputNotFound, r.Error)
		assert.Equal(t, "utxo://alice/9", r.Details["input"])
	})

	t.Run("spent", func(t *testing.T) {
		r := v(ctx, spend("alice", "utxo://alice/1", "utxo://alice/2"), store)
		assert.Equal(t, model.CodeInputAlreadySpent, r.Error)
		assert.Equal(t, "txn://alice/0", r.Details["spentBy"])
	})

	t.Run("not owner", func(t *testing.T) {
		r := v(ctx, spend("alice", "utxo://bob/1"), store)
		assert.Equal(t, model.CodeNotOwner, r.Error)
		assert.Equal(t, "bob", r.Details["owner"])
	})

	t.Run("not a utxo", func(t *testing.T) {
		r := v(ctx, spend("alice", "mutable://not/a/utxo"), store)
		assert.Equal(t, model.CodeInputNotFound, r.Error)
	})

	t.Run("override", func(t *testing.T) {
		admin := UTXO(UTXOConfig{
			CanSpend: func(signer, owner, uri string, value any) bool {
				return signer == "admin" || signer == owner
			},
		})

		assert.True(t, admin(ctx, spend("admin", "utxo://bob/1"), store).Valid)
	})

	t.Run("custom signer", func(t *testing.T) {
		bobSigns := UTXO(UTXOConfig{ExtractSigner: func(model.Transaction) string { return "bob" }})
		assert.True(t, bobSigns(ctx, spend("alice", "utxo://bob/1"), store).Valid)
	})

	t.Run("enveloped record", func(t *testing.T) {
		_, err := store.Write(ctx, "utxo://carol/1", map[string]any{
			"value":  map[string]any{"value": 3.0, "owner": "carol", "spent": false},
			"status": "confirmed",
		})
		require.NoError(t, err)

		assert.True(t, v(ctx, spend("carol", "utxo://carol/1"), store).Valid)
	})
}

func TestConservation(t *testing.T) {
	ctx := context.Background()
	store := utxoStore(t, map[string]model.UTXORecord{
		"utxo://alice/1": {Value: 60.0, Owner: "alice"},
		"utxo://alice/2": {Value: 40.0, Owner: "alice"},
	})

	v := Conservation(ConservationConfig{})

	t.Run("balanced", func(t *testing.T) {
		tx := stateTx("txn://a/1", []any{"utxo://alice/1", "utxo://alice/2"},
			[]any{[]any{"utxo://bob/1", 50.0}, []any{"utxo://alice/3", 50}}, nil)
		assert.True(t, v(ctx, tx, store).Valid)
	})

	t.Run("unbalanced", func(t *testing.T) {
		tx := stateTx("txn://a/1", []any{"utxo://alice/1", "utxo://alice/2"},
			[]any{[]any{"utxo://bob/1", 50.0}, []any{"utxo://alice/3", 30.0}}, nil)

		r := v(ctx, tx, store)
		assert.Equal(t, model.CodeConservationViolated, r.Error)
		assert.Equal(t, 100.0, r.Details["inputSum"])
		assert.Equal(t, 80.0, r.Details["outputSum"])
		assert.Equal(t, 20.0, r.Details["difference"])
	})

	t.Run("missing input before sum", func(t *testing.T) {
		tx := stateTx("txn://a/1", []any{"utxo://alice/1", "utxo://alice/9"}, []any{[]any{"utxo://bob/1", 60.0}}, nil)

		r := v(ctx, tx, store)
		assert.Equal(t, model.CodeInputNotFound, r.Error)
	})

	t.Run("output objects", func(t *testing.T) {
		tx := stateTx("txn://a/1", []any{"utxo://alice/1"},
			[]any{[]any{"utxo://bob/1", map[string]any{"value": 60.0, "owner": "bob"}}}, nil)
		assert.True(t, v(ctx, tx, store).Valid)
	})

	t.Run("custom extractors", func(t *testing.T) {
		double := Conservation(ConservationConfig{
			InputValue:  func(string, any) float64 { return 2 },
			OutputValue: func(model.Output) float64 { return 1 },
		})

		tx := stateTx("txn://a/1", []any{"utxo://alice/1"}, []any{[]any{"x://1", 0}, []any{"x://2", 0}}, nil)
		assert.True(t, double(ctx, tx, store).Valid)
	})
}

func TestFee(t *testing.T) {
	ctx := context.Background()
	v := Fee(FeeConfig{Prefix: "fees://", Required: FlatFee(10)})

	withFee := func(fee any) model.Transaction {
		return stateTx("txn://a/1", []any{}, []any{[]any{"utxo://bob/1", 50.0}, []any{"fees://node/1", fee}}, nil)
	}

	t.Run("no fee output", func(t *testing.T) {
		tx := stateTx("txn://a/1", []any{}, []any{[]any{"utxo://bob/1", 50.0}, []any{"utxo://alice/2", 30.0}}, nil)
		r := v(ctx, tx, nil)
		assert.Equal(t, model.CodeNoFeeOutput, r.Error)
	})

	t.Run("not numeric", func(t *testing.T) {
		r := v(ctx, withFee("ten"), nil)
		assert.Equal(t, model.CodeInvalidFeeType, r.Error)
	})

	t.Run("insufficient", func(t *testing.T) {
		r := v(ctx, withFee(9.99), nil)
		assert.Equal(t, model.CodeInsufficientFee, r.Error)
		assert.Equal(t, 9.99, r.Details["paid"])
		assert.Equal(t, 10.0, r.Details["required"])
	})

	t.Run("exact", func(t *testing.T) {
		assert.True(t, v(ctx, withFee(10), nil).Valid)
	})

	t.Run("over", func(t *testing.T) {
		assert.True(t, v(ctx, withFee(11.0), nil).Valid)
	})

	t.Run("required sees other outputs", func(t *testing.T) {
		perOutput := Fee(FeeConfig{Prefix: "fees://", Required: PerOutputFee(5)})
		assert.True(t, perOutput(ctx, withFee(5), nil).Valid)
		assert.Equal(t, model.CodeInsufficientFee, perOutput(ctx, withFee(4), nil).Error)
	})

	t.Run("no requirement", func(t *testing.T) {
		free := Fee(FeeConfig{Prefix: "fees://"})
		assert.True(t, free(ctx, withFee(0), nil).Valid)
	})
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	tx := model.NewTransaction("txn://a/1", nil)

	assert.True(t, Instrument("test_accept", AcceptAll())(ctx, tx, nil).Valid)
	assert.Equal(t, model.CodeInvalidTransactionData, Instrument("test_structural", Structural())(ctx, tx, nil).Error)
}
