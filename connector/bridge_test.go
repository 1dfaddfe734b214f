package connector

import (
	"encoding/hex"
	"math/big"
	"testing"

	auroraState "github.com/aurora-is-near/engine-standalone/state"
	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

func newTestView() *auroraState.View {
	return auroraState.New(storage.Wrap(memorydb.New()), 1, 0, nil)
}

func TestFtOnTransferBareRecipientCreditsWholeAmount(t *testing.T) {
	v := newTestView()
	recipient := common.HexToAddress("0x00000000000000000000000000000000000099")
	msg := "aurora:" + hex.EncodeToString(recipient.Bytes())

	refund, _, err := FtOnTransfer(v, common.Address{}, "sender.near", big.NewInt(500), msg)
	require.NoError(t, err)
	require.Zero(t, refund.Sign(), "want zero refund: whole amount consumed")

	bal, err := GetBalance(v, recipient.Hex())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), bal)
}

func TestFtOnTransferFeeIntentSplitsAmount(t *testing.T) {
	v := newTestView()
	recipient := common.HexToAddress("0x00000000000000000000000000000000000099")

	var feeIntent [64]byte
	fee := big.NewInt(30)
	fee.FillBytes(feeIntent[:16])
	copy(feeIntent[16:], []byte("relayer-seed-bytes-padding-here"))

	raw := append(append([]byte{}, feeIntent[:]...), recipient.Bytes()...)
	msg := "aurora:" + hex.EncodeToString(raw)

	_, _, err := FtOnTransfer(v, common.Address{}, "sender.near", big.NewInt(500), msg)
	require.NoError(t, err)

	recipientBal, err := GetBalance(v, recipient.Hex())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(470), recipientBal)

	relayerAddr := common.BytesToAddress(crypto.Keccak256(feeIntent[16:])[12:])
	relayerBal, err := GetBalance(v, relayerAddr.Hex())
	require.NoError(t, err)
	require.Equal(t, fee, relayerBal)
}

func TestFtOnTransferRejectsFeeExceedingAmount(t *testing.T) {
	v := newTestView()
	recipient := common.HexToAddress("0x00000000000000000000000000000000000099")

	var feeIntent [64]byte
	big.NewInt(1000).FillBytes(feeIntent[:16])
	raw := append(append([]byte{}, feeIntent[:]...), recipient.Bytes()...)
	msg := "aurora:" + hex.EncodeToString(raw)

	_, _, err := FtOnTransfer(v, common.Address{}, "sender.near", big.NewInt(500), msg)
	require.ErrorIs(t, err, ErrBadFtOnTransferMsg)
}

func TestDepositAcceptsAmountGreaterThanFee(t *testing.T) {
	v := newTestView()
	ev := DepositEvent{Recipient: "alice.near", Amount: big.NewInt(100), Fee: big.NewInt(10), Custodian: common.HexToAddress("0x01")}
	raw, err := rlp.EncodeToBytes(&ev)
	require.NoError(t, err)

	got, err := Deposit(v, raw)
	require.NoError(t, err)
	require.Equal(t, "alice.near", got.Recipient)
}

func TestDepositRejectsFeeNotLessThanAmount(t *testing.T) {
	v := newTestView()
	ev := DepositEvent{Recipient: "alice.near", Amount: big.NewInt(10), Fee: big.NewInt(10), Custodian: common.HexToAddress("0x01")}
	raw, err := rlp.EncodeToBytes(&ev)
	require.NoError(t, err)

	_, err = Deposit(v, raw)
	require.ErrorIs(t, err, ErrFeeExceedsAmount)
}

func TestFinishDepositIsIdempotentOnReplay(t *testing.T) {
	v := newTestView()
	custodian := common.HexToAddress("0x00000000000000000000000000000000000abc")
	relayer := common.HexToAddress("0x00000000000000000000000000000000000def")
	conn := &EthConnector{ProverAccount: "prover.near", CustodianAddress: custodian}

	ev := DepositEvent{Recipient: "alice.near", Amount: big.NewInt(1000), Fee: big.NewInt(0), Custodian: custodian}
	raw, err := rlp.EncodeToBytes(&ev)
	require.NoError(t, err)

	_, err = FinishDeposit(v, conn, raw, relayer)
	require.NoError(t, err)
	bal, err := GetBalance(v, "alice.near")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), bal)

	_, err = FinishDeposit(v, conn, raw, relayer)
	require.NoError(t, err)
	bal, err = GetBalance(v, "alice.near")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), bal, "replaying an already-used proof must not credit twice")
}

func TestFinishDepositSplitsFeeToRelayer(t *testing.T) {
	v := newTestView()
	custodian := common.HexToAddress("0x00000000000000000000000000000000000abc")
	relayer := common.HexToAddress("0x00000000000000000000000000000000000def")
	conn := &EthConnector{ProverAccount: "prover.near", CustodianAddress: custodian}

	ev := DepositEvent{Recipient: "alice.near", Amount: big.NewInt(1000), Fee: big.NewInt(40), Custodian: custodian}
	raw, err := rlp.EncodeToBytes(&ev)
	require.NoError(t, err)

	_, err = FinishDeposit(v, conn, raw, relayer)
	require.NoError(t, err)

	recipientBal, err := GetBalance(v, "alice.near")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(960), recipientBal, "recipient gets amount minus fee")

	relayerBal, err := GetBalance(v, relayer.Hex())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(40), relayerBal, "relayer gets the fee")
}

func TestFinishDepositRejectsFeeNotLessThanAmount(t *testing.T) {
	v := newTestView()
	custodian := common.HexToAddress("0x00000000000000000000000000000000000abc")
	relayer := common.HexToAddress("0x00000000000000000000000000000000000def")
	conn := &EthConnector{ProverAccount: "prover.near", CustodianAddress: custodian}

	ev := DepositEvent{Recipient: "alice.near", Amount: big.NewInt(100), Fee: big.NewInt(100), Custodian: custodian}
	raw, err := rlp.EncodeToBytes(&ev)
	require.NoError(t, err)

	_, err = FinishDeposit(v, conn, raw, relayer)
	require.ErrorIs(t, err, ErrFeeExceedsAmount)
}

func TestFinishDepositRejectsWrongCustodian(t *testing.T) {
	v := newTestView()
	relayer := common.HexToAddress("0x00000000000000000000000000000000000def")
	conn := &EthConnector{ProverAccount: "prover.near", CustodianAddress: common.HexToAddress("0x01")}
	ev := DepositEvent{Recipient: "alice.near", Amount: big.NewInt(1), Fee: big.NewInt(0), Custodian: common.HexToAddress("0x02")}
	raw, err := rlp.EncodeToBytes(&ev)
	require.NoError(t, err)

	_, err = FinishDeposit(v, conn, raw, relayer)
	require.ErrorIs(t, err, ErrNotCustodian)
}

func TestFtTransferRequiresReceiverStorageRegistration(t *testing.T) {
	v := newTestView()
	_, err := AddBalance(v, "alice.near", big.NewInt(100))
	require.NoError(t, err)

	_, err = FtTransfer(v, "alice.near", "bob.near", big.NewInt(10))
	require.ErrorIs(t, err, ErrStorageNotRegistered)

	RegisterStorage(v, "bob.near")
	_, err = FtTransfer(v, "alice.near", "bob.near", big.NewInt(10))
	require.NoError(t, err)

	bobBal, err := GetBalance(v, "bob.near")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), bobBal)
}

func TestWithdrawBurnsBalanceAndQueuesPromise(t *testing.T) {
	v := newTestView()
	_, err := AddBalance(v, "alice.near", big.NewInt(100))
	require.NoError(t, err)

	rec := NewRecorder()
	outcome, err := Withdraw(v, rec, "alice.near", big.NewInt(40), "0xabc")
	require.NoError(t, err)
	require.Len(t, outcome.Promises, 1)

	bal, err := GetBalance(v, "alice.near")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(60), bal)
}

func TestStorageUnregisterRefusesNonZeroBalance(t *testing.T) {
	v := newTestView()
	RegisterStorage(v, "alice.near")
	_, err := AddBalance(v, "alice.near", big.NewInt(1))
	require.NoError(t, err)

	_, err = StorageUnregister(v, "alice.near")
	require.ErrorIs(t, err, ErrInsufficientBalance)
}
