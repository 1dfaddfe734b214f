package connector

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	vm "github.com/aurora-is-near/engine-standalone/core/vm"
	auroraState "github.com/aurora-is-near/engine-standalone/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

// Outcome is the uniform result of every bridge/fungible-token handler: the
// cross-contract-call intents it queued along the way (§4.2, never
// dispatched by this core, only recorded).
type Outcome struct {
	Promises []Promise
}

// DepositEvent is a minimal, deterministic stand-in for the real bridge
// proof payload, whose exact wire format is produced by an external light
// client / prover collaborator and is explicitly out of scope (§1). RLP
// encoding gives it the same determinism guarantee the real proof format
// would need without inventing a verifier this core has no business owning.
type DepositEvent struct {
	Recipient string
	Amount    *big.Int
	Fee       *big.Int
	Custodian common.Address
}

// ParseDepositProof decodes a deposit proof and returns both the event it
// attests and the proof's own content hash, used as the used-proof set key.
func ParseDepositProof(raw []byte) (*DepositEvent, common.Hash, error) {
	var ev DepositEvent
	if err := rlp.DecodeBytes(raw, &ev); err != nil {
		return nil, common.Hash{}, fmt.Errorf("connector: decode deposit proof: %w", err)
	}
	return &ev, crypto.Keccak256Hash(raw), nil
}

// Deposit validates and stages a cross-chain deposit proof (§3, `Deposit`).
// It does not credit any balance: FinishDeposit does that once the proof's
// finality/used-proof checks pass, mirroring the two-step flow of the
// original connector (deposit event logged, then a separate finish call).
func Deposit(v *auroraState.View, proof []byte) (*DepositEvent, error) {
	ev, proofHash, err := ParseDepositProof(proof)
	if err != nil {
		return nil, err
	}
	if ev.Amount.Cmp(ev.Fee) <= 0 {
		return nil, ErrFeeExceedsAmount
	}
	used, err := IsProofUsed(v, proofHash)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrProofAlreadyUsed
	}
	log.Debug("connector: deposit proof accepted", "recipient", ev.Recipient, "amount", ev.Amount)
	return ev, nil
}

// FinishDeposit mints eth-on-near to the recipient (amount - fee) and the
// fee to relayer -- the account that submitted the finish_deposit call,
// derived into an EVM address the same way a Submit transaction's relayer
// is (§4.2) -- then marks the proof consumed so a replayed message is a
// pure no-op (§4.2 idempotent-replay requirement).
func FinishDeposit(v *auroraState.View, connector *EthConnector, proof []byte, relayer common.Address) (*Outcome, error) {
	ev, proofHash, err := ParseDepositProof(proof)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(ev.Custodian.Hex(), connector.CustodianAddress.Hex()) {
		return nil, ErrNotCustodian
	}
	if ev.Amount.Cmp(ev.Fee) <= 0 {
		return nil, ErrFeeExceedsAmount
	}
	used, err := IsProofUsed(v, proofHash)
	if err != nil {
		return nil, err
	}
	if used {
		// Replaying a finished deposit is a deliberate no-op, not an error:
		// the hashchain still records the call, but no balance moves twice.
		return &Outcome{}, nil
	}
	net := new(big.Int).Sub(ev.Amount, ev.Fee)
	if _, err := AddBalance(v, ev.Recipient, net); err != nil {
		return nil, err
	}
	if ev.Fee.Sign() > 0 {
		if _, err := AddBalance(v, relayer.Hex(), ev.Fee); err != nil {
			return nil, err
		}
	}
	if err := AddSupplyOnAurora(v, ev.Amount); err != nil {
		return nil, err
	}
	if err := AddSupplyOnNear(v, new(big.Int).Neg(ev.Amount)); err != nil {
		return nil, err
	}
	MarkProofUsed(v, proofHash)
	return &Outcome{}, nil
}

// Withdraw burns amount from sender's balance and reduces supply-on-aurora,
// queuing the NEAR-side payout as a promise rather than performing it
// (§3 `Withdraw`, §1 Non-goal: no custodian payout logic lives here).
func Withdraw(v *auroraState.View, rec *Recorder, sender string, amount *big.Int, recipient string) (*Outcome, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if _, err := SubBalance(v, sender, amount); err != nil {
		return nil, err
	}
	if err := AddSupplyOnAurora(v, new(big.Int).Neg(amount)); err != nil {
		return nil, err
	}
	if err := AddSupplyOnNear(v, amount); err != nil {
		return nil, err
	}
	rec.QueuePromise("custodian.near", "withdraw", nil, amount, 0)
	return &Outcome{Promises: rec.Promises()}, nil
}

// FtTransfer moves amount from sender to receiver within the fungible-token
// ledger (§3, NEP-141 `ft_transfer`).
func FtTransfer(v *auroraState.View, sender, receiver string, amount *big.Int) (*Outcome, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	registered, err := IsStorageRegistered(v, receiver)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrStorageNotRegistered
	}
	if _, err := SubBalance(v, sender, amount); err != nil {
		return nil, err
	}
	if _, err := AddBalance(v, receiver, amount); err != nil {
		return nil, err
	}
	return &Outcome{}, nil
}

// FtTransferCall performs the ledger transfer then queues the `ft_on_transfer`
// callback promise against receiver, exactly as NEP-141's transfer-and-call
// does, without the core itself ever driving that callback (§1).
func FtTransferCall(v *auroraState.View, rec *Recorder, sender, receiver string, amount *big.Int, msg string, gas uint64) (*Outcome, error) {
	if _, err := FtTransfer(v, sender, receiver, amount); err != nil {
		return nil, err
	}
	args, err := rlp.EncodeToBytes(&ftOnTransferArgs{SenderID: sender, Amount: amount.Bytes(), Msg: msg})
	if err != nil {
		return nil, err
	}
	rec.QueuePromise(receiver, "ft_on_transfer", args, big.NewInt(0), gas)
	return &Outcome{Promises: rec.Promises()}, nil
}

type ftOnTransferArgs struct {
	SenderID string
	Amount   []byte
	Msg      string
}

// FtResolveTransfer settles an ft_transfer_call: refundAmount (taken from
// the ft_on_transfer promise result, zero if the result is missing/unused)
// is moved from receiver back to sender, capped at the receiver's current
// balance (§3, NEP-141 `ft_resolve_transfer`).
func FtResolveTransfer(v *auroraState.View, sender, receiver string, refundAmount *big.Int) (*Outcome, error) {
	if refundAmount == nil || refundAmount.Sign() <= 0 {
		return &Outcome{}, nil
	}
	// The receiver may already have spent part of what it is refunding back;
	// clamp to whatever remains rather than surfacing a resolve-time error,
	// matching NEP-141's "unused_amount may be capped by the receiver's
	// current balance" clause.
	receiverBal, err := GetBalance(v, receiver)
	if err != nil {
		return nil, err
	}
	if receiverBal.Cmp(refundAmount) < 0 {
		refundAmount = receiverBal
	}
	if refundAmount.Sign() == 0 {
		return &Outcome{}, nil
	}
	if _, err := SubBalance(v, receiver, refundAmount); err != nil {
		return nil, err
	}
	if _, err := AddBalance(v, sender, refundAmount); err != nil {
		return nil, err
	}
	return &Outcome{}, nil
}

// ftOnTransferMsg is the decoded form of the message carried by an incoming
// ERC-20 -> NEP-141 `ft_on_transfer` call. Per §6's precise grammar the
// message is either a bare 20-byte recipient hex string or a 64-byte-prefix
// form (64-byte fee-intent payload followed by the 20-byte recipient); the
// looser colon-delimited prose in §4.2 describes the same two shapes at a
// higher level and is not a third variant.
type ftOnTransferMsg struct {
	FeeIntent []byte
	Recipient common.Address
}

// ParseFtOnTransferMsg decodes the `msg` argument of `ft_on_transfer`
// against the grammar in §6: "aurora:" followed by either 40 hex chars
// (recipient only) or 168 hex chars (64-byte fee-intent payload, then the
// 20-byte recipient).
func ParseFtOnTransferMsg(msg string) (*ftOnTransferMsg, error) {
	const prefix = "aurora:"
	if !strings.HasPrefix(msg, prefix) {
		return nil, ErrBadFtOnTransferMsg
	}
	hexPart := msg[len(prefix):]
	raw, err := hex.DecodeString(hexPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFtOnTransferMsg, err)
	}
	switch len(raw) {
	case 20:
		return &ftOnTransferMsg{Recipient: common.BytesToAddress(raw)}, nil
	case 84:
		return &ftOnTransferMsg{FeeIntent: raw[:64], Recipient: common.BytesToAddress(raw[64:])}, nil
	default:
		return nil, ErrBadFtOnTransferMsg
	}
}

// FtOnTransfer is the ERC-20-mirror-triggered callback: NEP-141 tokens that
// arrived via `ft_transfer_call` targeting the engine account are minted as
// an EVM balance for the address the `msg` argument names (§3, §6). When the
// message carries a fee-intent payload, its first 16 bytes are the fee
// (big-endian), `amount - fee` goes to the recipient and `fee` goes to the
// relayer address taken from the low 20 bytes of keccak of the remaining 48
// fee-intent bytes; the plain `aurora:<hex20>` case credits the whole amount
// to the recipient.
func FtOnTransfer(v *auroraState.View, engineAddr common.Address, senderID string, amount *big.Int, msg string) (*big.Int, *Outcome, error) {
	parsed, err := ParseFtOnTransferMsg(msg)
	if err != nil {
		return nil, nil, err
	}
	if parsed.FeeIntent == nil {
		if _, err := AddBalance(v, parsed.Recipient.Hex(), amount); err != nil {
			return nil, nil, err
		}
		return big.NewInt(0), &Outcome{}, nil
	}

	fee := new(big.Int).SetBytes(parsed.FeeIntent[:16])
	if fee.Cmp(amount) > 0 {
		return nil, nil, ErrBadFtOnTransferMsg
	}
	relayerAddr := common.BytesToAddress(crypto.Keccak256(parsed.FeeIntent[16:])[12:])
	net := new(big.Int).Sub(amount, fee)
	if _, err := AddBalance(v, parsed.Recipient.Hex(), net); err != nil {
		return nil, nil, err
	}
	if fee.Sign() > 0 {
		if _, err := AddBalance(v, relayerAddr.Hex(), fee); err != nil {
			return nil, nil, err
		}
	}
	return big.NewInt(0), &Outcome{}, nil
}

// StorageDeposit registers account as able to hold a fungible-token
// balance (§3, NEP-141 storage management). Re-registering is a no-op.
func StorageDeposit(v *auroraState.View, account string) (*Outcome, error) {
	registered, err := IsStorageRegistered(v, account)
	if err != nil {
		return nil, err
	}
	if !registered {
		RegisterStorage(v, account)
	}
	return &Outcome{}, nil
}

// StorageUnregister removes account's storage registration, refusing to do
// so while it still holds a non-zero balance (NEP-141 force=false path;
// force=true is rejected here since this core never destroys balances
// silently -- callers wanting that must withdraw or transfer out first).
func StorageUnregister(v *auroraState.View, account string) (*Outcome, error) {
	bal, err := GetBalance(v, account)
	if err != nil {
		return nil, err
	}
	if bal.Sign() != 0 {
		return nil, ErrInsufficientBalance
	}
	registered, err := IsStorageRegistered(v, account)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrStorageNotRegistered
	}
	UnregisterStorage(v, account)
	return &Outcome{}, nil
}

// StorageWithdraw is the NEP-141 storage-management op for reclaiming
// over-paid storage deposit. No per-account storage cost is tracked by this
// standalone core (the upstream chain owns that accounting, §1), so a
// registered account always has zero withdrawable balance.
func StorageWithdraw(v *auroraState.View, account string) (*big.Int, *Outcome, error) {
	registered, err := IsStorageRegistered(v, account)
	if err != nil {
		return nil, nil, err
	}
	if !registered {
		return nil, nil, ErrStorageNotRegistered
	}
	return big.NewInt(0), &Outcome{}, nil
}

// SetEngineAwarePausedFlags is the `SetPausedFlags` bridge operation
// (§4.2). Neither this function nor the dispatcher checks who the caller is.
func SetEngineAwarePausedFlags(v *auroraState.View, mask uint64) (*Outcome, error) {
	SetPausedFlags(v, mask)
	return &Outcome{}, nil
}

var _ vm.PromiseHandler = (*Recorder)(nil)
