package core

import (
	"math/big"
	"testing"

	vm "github.com/aurora-is-near/engine-standalone/core/vm"
	"github.com/aurora-is-near/engine-standalone/state"
	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"
)

const testEngineAccount = "aurora"

var testChainID = big.NewInt(1313161554)

func newTestEngine(t *testing.T, paused bool) *Engine {
	t.Helper()
	store := storage.Wrap(memorydb.New())
	e := NewEngine(store, testEngineAccount, nil)

	v := state.New(store, 0, 0, nil)
	require.NoError(t, state.SaveEngineState(v, &state.EngineState{
		ChainID: testChainID,
		Owner:   testEngineAccount,
		Paused:  paused,
	}))
	require.NoError(t, commitDiff(store, v.GetTransactionDiff()))
	return e
}

func mustAdmitBlock(t *testing.T, e *Engine, height uint64) common.Hash {
	t.Helper()
	hash := common.BytesToHash([]byte{byte(height)})
	_, err := e.Consume(BlockMessage{Hash: hash, Height: height, Metadata: BlockMetadata{Timestamp: 1}})
	require.NoError(t, err)
	return hash
}

func fundAccount(t *testing.T, e *Engine, addr common.Address, amount *big.Int) {
	t.Helper()
	v := state.New(e.Store, 0, 0, nil)
	v.Put(storage.BalanceKey(addr), amount.Bytes())
	require.NoError(t, commitDiff(e.Store, v.GetTransactionDiff()))
}

func signedTransferTx(t *testing.T, key []byte, to common.Address, value *big.Int, nonce uint64) []byte {
	t.Helper()
	priv, err := crypto.ToECDSA(key)
	require.NoError(t, err)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      21000,
		GasPrice: big.NewInt(0),
	})
	signer := types.LatestSignerForChainID(testChainID)
	signedTx, err := types.SignTx(tx, signer, priv)
	require.NoError(t, err)

	raw, err := signedTx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func fixedTestKey(t *testing.T) ([]byte, common.Address) {
	t.Helper()
	key, err := crypto.HexToECDSA("010101010101010101010101010101010101010101010101010101010101010a")
	require.NoError(t, err)
	return crypto.FromECDSA(key), crypto.PubkeyToAddress(key.PublicKey)
}

func TestConsumeBlockMessageIsImmutableAndIdempotent(t *testing.T) {
	e := newTestEngine(t, false)
	hash := mustAdmitBlock(t, e, 1)

	outcome, err := e.Consume(BlockMessage{Hash: hash, Height: 999, Metadata: BlockMetadata{Timestamp: 999}})
	require.NoError(t, err)
	require.Equal(t, OutcomeBlockAdded, outcome.Kind)

	block, err := loadBlock(e.Store, hash)
	require.NoError(t, err)
	require.EqualValues(t, 1, block.Height, "re-admitting an existing block hash must not overwrite it")
}

func TestConsumeTransactionMessage_SubmitValueTransferPersists(t *testing.T) {
	e := newTestEngine(t, false)
	blockHash := mustAdmitBlock(t, e, 1)

	key, from := fixedTestKey(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000001")
	fundAccount(t, e, from, big.NewInt(1_000_000))

	raw := signedTransferTx(t, key, to, big.NewInt(100), 0)
	var receiptID [32]byte
	copy(receiptID[:], []byte("receipt-1"))

	msg := &TransactionMessage{
		NearReceiptID: receiptID,
		BlockHash:     blockHash,
		Signer:        "relay.near",
		Caller:        "relay.near",
		Kind:          SubmitKind{Raw: raw},
		Succeeded:     true,
	}

	outcome, err := e.Consume(msg)
	require.NoError(t, err)
	require.NoError(t, outcome.Err)
	require.NotNil(t, outcome.Diff, "a successful submit must persist its diff")

	v := state.New(e.Store, 1, 0, nil)
	toBal, err := v.Get(storage.BalanceKey(to))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), new(big.Int).SetBytes(toBal))
}

func TestConsumeTransactionMessage_RevertedCallIsStillPersisted(t *testing.T) {
	e := newTestEngine(t, false)
	blockHash := mustAdmitBlock(t, e, 1)

	contract := common.HexToAddress("0x00000000000000000000000000000000000002")
	v := state.New(e.Store, 0, 0, nil)
	v.Put(storage.CodeKey(contract), []byte{0x60, 0x00})
	require.NoError(t, commitDiff(e.Store, v.GetTransactionDiff()))

	var receiptID [32]byte
	copy(receiptID[:], []byte("receipt-2"))
	msg := &TransactionMessage{
		NearReceiptID: receiptID,
		BlockHash:     blockHash,
		Signer:        "relay.near",
		Caller:        "relay.near",
		Kind:          CallKind{Address: contract, Value: big.NewInt(0), Gas: 21000},
		Succeeded:     true,
	}

	outcome, err := e.Consume(msg)
	require.NoError(t, err)
	require.NoError(t, outcome.Err)
	require.NotNil(t, outcome.Diff,
		"a revert is still Ok(Some(Submit(Ok(status=revert)))) and must persist (§4.1 step 5, scenario S3)")
	require.Equal(t, vm.StatusRevert, outcome.Result.Submit.Status)
}

func TestConsumeTransactionMessage_FailedTransactionIsIgnored(t *testing.T) {
	e := newTestEngine(t, false)
	blockHash := mustAdmitBlock(t, e, 1)

	var receiptID [32]byte
	copy(receiptID[:], []byte("receipt-3"))
	msg := &TransactionMessage{
		NearReceiptID: receiptID,
		BlockHash:     blockHash,
		Kind:          UnknownKind{},
		Succeeded:     false,
	}

	outcome, err := e.Consume(msg)
	require.NoError(t, err)
	require.Equal(t, OutcomeFailedTransactionIgnored, outcome.Kind)
}

func TestConsumeTransactionMessage_PausedEngineRejectsSubmit(t *testing.T) {
	e := newTestEngine(t, true)
	blockHash := mustAdmitBlock(t, e, 1)

	key, from := fixedTestKey(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000001")
	fundAccount(t, e, from, big.NewInt(1_000_000))
	raw := signedTransferTx(t, key, to, big.NewInt(100), 0)

	var receiptID [32]byte
	copy(receiptID[:], []byte("receipt-4"))
	msg := &TransactionMessage{
		NearReceiptID: receiptID,
		BlockHash:     blockHash,
		Signer:        "relay.near",
		Caller:        "relay.near",
		Kind:          SubmitKind{Raw: raw},
		Succeeded:     true,
	}

	outcome, err := e.Consume(msg)
	require.NoError(t, err)
	require.ErrorIs(t, outcome.Err, ErrPaused)
	require.Nil(t, outcome.Diff, "a paused-engine rejection must never persist a diff")
}

func TestConsumeTransactionMessage_UnknownBlockHashErrors(t *testing.T) {
	e := newTestEngine(t, false)
	var receiptID [32]byte
	copy(receiptID[:], []byte("receipt-5"))
	msg := &TransactionMessage{
		NearReceiptID: receiptID,
		BlockHash:     common.HexToHash("0xdeadbeef"),
		Kind:          UnknownKind{},
		Succeeded:     true,
	}
	_, err := e.Consume(msg)
	require.ErrorIs(t, err, ErrBlockNotFound)
}
