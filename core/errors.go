package core

import "fmt"

// ErrorKind names one of the ≥10 source error kinds the dispatcher
// consolidates into a single sum (§4.6, §7). Kept distinct from the
// underlying wrapped error so callers can branch on Kind without string
// matching, while errors.Is/As still reach the wrapped cause.
type ErrorKind uint8

const (
	ErrKindEngineState ErrorKind = iota
	ErrKindEvmExecution
	ErrKindErc20Deploy
	ErrKindBridgeDeposit
	ErrKindBridgeFinishDeposit
	ErrKindFungibleTransfer
	ErrKindFungibleWithdraw
	ErrKindFungibleStorage
	ErrKindInvalidAddress
	ErrKindConnectorInit
	ErrKindConnectorStorage
	ErrKindXccFund
	ErrKindHashchain
	ErrKindIo
	ErrKindPaused
	ErrKindBlockNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindEngineState:
		return "EngineState"
	case ErrKindEvmExecution:
		return "EvmExecution"
	case ErrKindErc20Deploy:
		return "Erc20Deploy"
	case ErrKindBridgeDeposit:
		return "BridgeDeposit"
	case ErrKindBridgeFinishDeposit:
		return "BridgeFinishDeposit"
	case ErrKindFungibleTransfer:
		return "FungibleTransfer"
	case ErrKindFungibleWithdraw:
		return "FungibleWithdraw"
	case ErrKindFungibleStorage:
		return "FungibleStorage"
	case ErrKindInvalidAddress:
		return "InvalidAddress"
	case ErrKindConnectorInit:
		return "ConnectorInit"
	case ErrKindConnectorStorage:
		return "ConnectorStorage"
	case ErrKindXccFund:
		return "XccFund"
	case ErrKindHashchain:
		return "Hashchain"
	case ErrKindIo:
		return "Io"
	case ErrKindPaused:
		return "Paused"
	case ErrKindBlockNotFound:
		return "BlockNotFound"
	default:
		return "Unknown"
	}
}

// Error is the public error type every dispatcher/driver failure surfaces
// as (§4.6: "the dispatcher consolidates... into a single sum; variants are
// preserved for logging"). Unwrap exposes the underlying cause so
// errors.Is/errors.As keep working against sentinel errors from state,
// hashchain, connector, and storage.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// ErrPaused is returned by the dispatcher when the engine state's Paused
// flag rejects an EVM or bridge operation (§4.2).
var ErrPaused = &Error{Kind: ErrKindPaused, Err: fmt.Errorf("engine is paused")}

// ErrBlockNotFound is returned by Consume when a transaction's BlockHash
// does not resolve to a previously-admitted block (§4.1 step 2).
var ErrBlockNotFound = &Error{Kind: ErrKindBlockNotFound, Err: fmt.Errorf("block not found")}
