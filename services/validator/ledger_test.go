package validator

import (
	"context"
	"testing"

	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()

	ledger := Ledger(LedgerConfig{Prefixes: []string{"utxo://"}})

	t.Run("issuance", func(t *testing.T) {
		tx := stateTx("txn://bank/1", []any{}, []any{[]any{"utxo://alice/1", 10.0}}, nil)
		assert.True(t, ledger(ctx, tx, utxoStore(t, nil)).Valid)
	})

	t.Run("output without owner", func(t *testing.T) {
		tx := stateTx("txn://bank/1", []any{}, []any{[]any{"utxo://", 10.0}}, nil)

		r := ledger(ctx, tx, utxoStore(t, nil))
		assert.Equal(t, model.CodeInvalidTransactionData, r.Error)
		assert.Equal(t, "utxo://", r.Details["outputUri"])
	})

	t.Run("negative or non numeric value", func(t *testing.T) {
		for _, value := range []any{-1.0, "ten", map[string]any{"v": 1}} {
			tx := stateTx("txn://bank/1", []any{}, []any{[]any{"utxo://alice/1", value}}, nil)
			assert.Equal(t, model.CodeInvalidTransactionData, ledger(ctx, tx, utxoStore(t, nil)).Error)
		}
	})

	t.Run("outputs outside the ledger are open", func(t *testing.T) {
		tx := stateTx("txn://bank/1", []any{}, []any{[]any{"doc://alice/1", "text"}}, nil)
		assert.True(t, ledger(ctx, tx, utxoStore(t, nil)).Valid)
	})

	t.Run("transfer", func(t *testing.T) {
		store := utxoStore(t, map[string]model.UTXORecord{"utxo://alice/1": {Value: 10.0, Owner: "alice"}})

		tx := stateTx("txn://alice/2", []any{"utxo://alice/1"},
			[]any{[]any{"utxo://bob/1", 4.0}, []any{"utxo://alice/2", 6.0}}, map[string]any{"origin": "alice"})
		assert.True(t, ledger(ctx, tx, store).Valid)

		tx = stateTx("txn://alice/3", []any{"utxo://alice/1"},
			[]any{[]any{"utxo://bob/1", 11.0}}, map[string]any{"origin": "alice"})
		assert.Equal(t, model.CodeConservationViolated, ledger(ctx, tx, store).Error)

		tx = stateTx("txn://bob/1", []any{"utxo://alice/1"},
			[]any{[]any{"utxo://bob/1", 10.0}}, map[string]any{"origin": "bob"})
		assert.Equal(t, model.CodeNotOwner, ledger(ctx, tx, store).Error)
	})

	t.Run("fee", func(t *testing.T) {
		withFee := Ledger(LedgerConfig{Prefixes: []string{"utxo://"}, FeePrefix: "fee://", MinFee: 1})
		store := utxoStore(t, map[string]model.UTXORecord{"utxo://alice/1": {Value: 10.0, Owner: "alice"}})

		tx := stateTx("txn://alice/2", []any{"utxo://alice/1"},
			[]any{[]any{"utxo://bob/1", 9.0}, []any{"fee://miner/1", 1.0}}, map[string]any{"origin": "alice"})
		assert.True(t, withFee(ctx, tx, store).Valid)

		tx = stateTx("txn://alice/3", []any{"utxo://alice/1"},
			[]any{[]any{"utxo://bob/1", 10.0}}, map[string]any{"origin": "alice"})
		assert.Equal(t, model.CodeNoFeeOutput, withFee(ctx, tx, store).Error)
	})

	t.Run("signatures", func(t *testing.T) {
		key, err := bec.NewPrivateKey()
		require.NoError(t, err)

		owner := PublicKeyHex(key)
		signed := Ledger(LedgerConfig{Prefixes: []string{"utxo://"}, Verify: VerifyECDSA})
		store := utxoStore(t, map[string]model.UTXORecord{"utxo://" + owner + "/1": {Value: 5.0, Owner: owner}})

		unsigned := stateTx("txn://x/1", []any{"utxo://" + owner + "/1"}, []any{[]any{"utxo://bob/1", 5.0}}, nil)

		message, err := CanonicalMessage(unsigned)
		require.NoError(t, err)

		sig, err := SignECDSA(key, message)
		require.NoError(t, err)

		tx := stateTx("txn://x/1", []any{"utxo://" + owner + "/1"}, []any{[]any{"utxo://bob/1", 5.0}},
			map[string]any{"origin": owner, "sig": sig})
		assert.True(t, signed(ctx, tx, store).Valid)

		forged := stateTx("txn://x/1", []any{"utxo://" + owner + "/1"}, []any{[]any{"utxo://mallory/1", 5.0}},
			map[string]any{"origin": owner, "sig": sig})
		assert.Equal(t, model.CodeInvalidSignature, signed(ctx, forged, store).Error)
	})
}
