package core

import (
	"fmt"

	"github.com/aurora-is-near/engine-standalone/connector"
	vm "github.com/aurora-is-near/engine-standalone/core/vm"
	"github.com/aurora-is-near/engine-standalone/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Dispatcher executes one transaction's kind against a scoped view (§4.2).
// It is the seam between the replay driver and every handler package
// (core/vm, connector); it never decides persistence itself, only reports a
// Result for the driver to act on.
type Dispatcher struct {
	EngineAccount string
	Interpreter   vm.Interpreter
}

// NewDispatcher builds a Dispatcher around a pluggable EVM backend.
// Passing a nil interpreter defaults to vm.SimpleInterpreter{}, the
// dependency-free stand-in (§4.4).
func NewDispatcher(engineAccount string, interp vm.Interpreter) *Dispatcher {
	if interp == nil {
		interp = vm.SimpleInterpreter{}
	}
	return &Dispatcher{EngineAccount: engineAccount, Interpreter: interp}
}

func (d *Dispatcher) engineAddress() common.Address {
	return vm.NearAccountToEVMAddress(d.EngineAccount)
}

// dispatchSubmit implements the `Submit`/`SubmitWithArgs` transaction kinds
// (§4.2): both decode the same raw signed EVM transaction through vm.Submit,
// keyed to the engine's own chain id and a relayer address derived from the
// message's signer.
func (d *Dispatcher) dispatchSubmit(v *state.View, env vm.Env, raw []byte) (*TransactionExecutionResult, error) {
	es, err := state.LoadEngineState(v)
	if err != nil {
		return nil, wrapErr(ErrKindEngineState, err)
	}
	relayer := vm.NearAccountToEVMAddress(env.Signer)
	rec := connector.NewRecorder()
	res, err := vm.Submit(v, env, raw, es.ChainID, relayer, d.Interpreter, rec)
	if err != nil {
		return nil, wrapErr(ErrKindEvmExecution, err)
	}
	return &TransactionExecutionResult{Kind: ResultSubmit, Submit: res}, nil
}

// isGatedByPause reports whether kind is one of the EVM-payload or
// bridge/fungible-token kinds the Paused flag rejects (§4.2). Admin kinds,
// and the two exemptions named in the spec (StartHashchain, the resume
// operations), are never gated.
func isGatedByPause(kind TransactionKind) bool {
	switch kind.(type) {
	case SubmitKind, SubmitWithArgsKind, CallKind, DeployKind,
		DeployErc20Kind, FtOnTransferKind, FtTransferKind, FtTransferCallKind,
		FtResolveTransferKind, WithdrawKind, DepositKind, FinishDepositKind,
		StorageDepositKind, StorageUnregisterKind, StorageWithdrawKind,
		SetPausedFlagsKind:
		return true
	default:
		return false
	}
}

// txHash implements §4.2's hash rule: Submit/SubmitWithArgs hash their raw
// bytes; every other kind (including Unknown) uses the message's own
// near_receipt_id.
func txHash(msg *TransactionMessage) common.Hash {
	switch k := msg.Kind.(type) {
	case SubmitKind:
		return crypto.Keccak256Hash(k.Raw)
	case SubmitWithArgsKind:
		return crypto.Keccak256Hash(k.Raw)
	default:
		return common.BytesToHash(msg.NearReceiptID[:])
	}
}

// Execute runs msg.Kind against v, returning the tx hash (§4.2 hash rule),
// the uniform result, and an error representing the outer `Err(_)` branch.
// It does not persist anything and does not touch the hashchain; those are
// the driver's responsibility (§4.1).
func (d *Dispatcher) Execute(v *state.View, env vm.Env, msg *TransactionMessage) (common.Hash, *TransactionExecutionResult, error) {
	hash := txHash(msg)

	if isGatedByPause(msg.Kind) {
		es, err := state.LoadEngineState(v)
		if err != nil && err != state.ErrEngineStateNotFound {
			return hash, nil, wrapErr(ErrKindEngineState, err)
		}
		if es != nil && es.Paused {
			return hash, nil, ErrPaused
		}
	}

	result, err := d.dispatch(v, env, msg)
	return hash, result, err
}

func (d *Dispatcher) dispatch(v *state.View, env vm.Env, msg *TransactionMessage) (*TransactionExecutionResult, error) {
	switch k := msg.Kind.(type) {

	// --- EVM payloads ---
	case SubmitKind:
		return d.dispatchSubmit(v, env, k.Raw)
	case SubmitWithArgsKind:
		return d.dispatchSubmit(v, env, k.Raw)
	case CallKind:
		caller := vm.NearAccountToEVMAddress(msg.Caller)
		rec := connector.NewRecorder()
		res, err := vm.Call(v, env, caller, k.Address, bigToUint256(k.Value), k.Input, k.Gas, d.Interpreter, rec)
		if err != nil {
			return nil, wrapErr(ErrKindEvmExecution, err)
		}
		return &TransactionExecutionResult{Kind: ResultSubmit, Submit: res}, nil
	case DeployKind:
		caller := vm.NearAccountToEVMAddress(msg.Caller)
		rec := connector.NewRecorder()
		res, err := vm.DeployCodeWithInput(v, env, caller, k.InitCode, 0, d.Interpreter, rec)
		if err != nil {
			return nil, wrapErr(ErrKindEvmExecution, err)
		}
		return &TransactionExecutionResult{Kind: ResultSubmit, Submit: res}, nil

	// --- Bridge / fungible-token ---
	case DeployErc20Kind:
		addr, err := vm.DeployErc20Token(v, d.engineAddress(), k.TokenID)
		if err != nil {
			return nil, wrapErr(ErrKindErc20Deploy, err)
		}
		return &TransactionExecutionResult{Kind: ResultDeployErc20, DeployErc20Address: addr}, nil

	case FtOnTransferKind:
		if msg.Caller == d.EngineAccount {
			_, _, err := connector.FtOnTransfer(v, d.engineAddress(), k.SenderID, k.Amount, k.Msg)
			if err != nil {
				return nil, wrapErr(ErrKindFungibleTransfer, err)
			}
			return &TransactionExecutionResult{Kind: ResultNone}, nil
		}
		parsed, err := connector.ParseFtOnTransferMsg(k.Msg)
		if err != nil {
			return nil, wrapErr(ErrKindFungibleTransfer, err)
		}
		tokenID, err := erc20TokenIDForCaller(v, msg.Caller)
		if err != nil {
			return nil, wrapErr(ErrKindFungibleTransfer, err)
		}
		if err := connector.CreditErc20Mirror(v, tokenID, parsed.Recipient, k.Amount); err != nil {
			return nil, wrapErr(ErrKindFungibleTransfer, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	case FtTransferKind:
		if _, err := connector.FtTransfer(v, msg.Signer, k.Receiver, k.Amount); err != nil {
			return nil, wrapErr(ErrKindFungibleTransfer, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	case FtTransferCallKind:
		rec := connector.NewRecorder()
		outcome, err := connector.FtTransferCall(v, rec, msg.Signer, k.Receiver, k.Amount, k.Msg, k.Gas)
		if err != nil {
			return nil, wrapErr(ErrKindFungibleTransfer, err)
		}
		return &TransactionExecutionResult{Kind: ResultPromise, Promises: outcome.Promises}, nil

	case FtResolveTransferKind:
		if _, err := connector.FtResolveTransfer(v, k.SenderID, k.Receiver, k.RefundAmount); err != nil {
			return nil, wrapErr(ErrKindFungibleTransfer, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	case WithdrawKind:
		rec := connector.NewRecorder()
		outcome, err := connector.Withdraw(v, rec, msg.Signer, k.Amount, k.Recipient)
		if err != nil {
			return nil, wrapErr(ErrKindFungibleWithdraw, err)
		}
		return &TransactionExecutionResult{Kind: ResultPromise, Promises: outcome.Promises}, nil

	case DepositKind:
		if _, err := connector.Deposit(v, k.RawProof); err != nil {
			return nil, wrapErr(ErrKindBridgeDeposit, err)
		}
		rec := connector.NewRecorder()
		rec.QueuePromise(d.EngineAccount, "verify_log_entry", k.RawProof, nil, 0)
		return &TransactionExecutionResult{Kind: ResultPromise, Promises: rec.Promises()}, nil

	case FinishDepositKind:
		conn, err := connector.Load(v)
		if err != nil {
			return nil, wrapErr(ErrKindConnectorInit, err)
		}
		relayer := vm.NearAccountToEVMAddress(msg.Caller)
		if _, err := connector.FinishDeposit(v, conn, k.RawProof, relayer); err != nil {
			return nil, wrapErr(ErrKindBridgeFinishDeposit, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	case StorageDepositKind:
		if _, err := connector.StorageDeposit(v, k.Account); err != nil {
			return nil, wrapErr(ErrKindFungibleStorage, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	case StorageUnregisterKind:
		if _, err := connector.StorageUnregister(v, k.Account); err != nil {
			return nil, wrapErr(ErrKindFungibleStorage, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	case StorageWithdrawKind:
		if _, _, err := connector.StorageWithdraw(v, k.Account); err != nil {
			return nil, wrapErr(ErrKindFungibleStorage, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	case SetPausedFlagsKind:
		if _, err := connector.SetEngineAwarePausedFlags(v, k.Mask); err != nil {
			return nil, wrapErr(ErrKindFungibleStorage, err)
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	// --- Admin ---
	case NewEngineKind:
		if err := handleNewEngine(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case SetOwnerKind:
		if err := handleSetOwner(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case SetUpgradeDelayBlocksKind:
		if err := handleSetUpgradeDelayBlocks(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case PauseContractKind:
		if err := handlePauseContract(v); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case ResumeContractKind:
		if err := handleResumeContract(v); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case SetKeyManagerKind:
		if err := handleSetKeyManager(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case RegisterRelayerKind:
		if err := handleRegisterRelayer(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case AddRelayerKeyKind:
		if err := handleAddRelayerKey(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case RemoveRelayerKeyKind:
		if err := handleRemoveRelayerKey(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case PausePrecompilesKind:
		if err := handlePausePrecompiles(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case ResumePrecompilesKind:
		if err := handleResumePrecompiles(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case NewConnectorKind:
		if err := handleNewConnector(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case SetConnectorDataKind:
		if err := handleSetConnectorData(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case FactoryUpdateKind:
		if err := handleFactoryUpdate(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case FactoryUpdateAddressVersionKind:
		if err := handleFactoryUpdateAddressVersion(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case FactorySetWnearAddressKind:
		if err := handleFactorySetWnearAddress(v, k); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultNone}, nil
	case FundXccSubAccountKind:
		rec := connector.NewRecorder()
		if err := handleFundXccSubAccount(v, rec, k, d.engineAddress()); err != nil {
			return nil, err
		}
		return &TransactionExecutionResult{Kind: ResultPromise, Promises: rec.Promises()}, nil
	case RefundOnErrorKind:
		res, err := vm.RefundOnError(v, env, k.To, bigToUint256(k.Amount), d.Interpreter)
		if err != nil {
			return nil, wrapErr(ErrKindEvmExecution, err)
		}
		return &TransactionExecutionResult{Kind: ResultSubmit, Submit: res}, nil
	case StartHashchainKind:
		// Handled entirely by the driver (it owns the hashchain.State), not
		// the dispatcher: start_hashchain seeds a record the dispatcher has
		// no handle to. Reporting ResultNone lets the normal persistence and
		// hashchain-update steps proceed uneventfully.
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	// --- Sentinel ---
	case UnknownKind:
		return &TransactionExecutionResult{Kind: ResultNone}, nil

	default:
		return nil, wrapErr(ErrKindIo, fmt.Errorf("core: unhandled transaction kind %T", k))
	}
}

// erc20TokenIDForCaller resolves the NEP-141 token id mapped to the ERC-20
// mirror address that invoked ft_on_transfer, so a non-engine caller's
// transfer can be attributed to the right mirror (§4.2: "else credit the
// corresponding ERC-20 mirror"). The mapping was established by an earlier
// DeployErc20 dispatch; an unmapped caller is a protocol violation the
// upstream chain should never produce, so it is surfaced as an error here
// rather than silently defaulting to a fresh token id.
func erc20TokenIDForCaller(v *state.View, caller string) (string, error) {
	addr := vm.NearAccountToEVMAddress(caller)
	raw, err := v.Get(nep141ForErc20(addr))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("core: no NEP-141 token mapped to caller %s", caller)
	}
	return string(raw), nil
}
