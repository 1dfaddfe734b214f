package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/aurora-is-near/engine-standalone/hashchain"
	"github.com/aurora-is-near/engine-standalone/state"
	"github.com/aurora-is-near/engine-standalone/storage"
	vm "github.com/aurora-is-near/engine-standalone/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	gometrics "github.com/hashicorp/go-metrics"
)

// OutcomeKind distinguishes the three shapes Consume can return (§4.1).
type OutcomeKind uint8

const (
	OutcomeBlockAdded OutcomeKind = iota
	OutcomeFailedTransactionIgnored
	OutcomeTransactionIncluded
)

// Outcome is ConsumeMessageOutcome (§4.1, §8 property 1): the driver's
// single return shape, covering all three message-handling paths.
type Outcome struct {
	Kind   OutcomeKind
	Hash   common.Hash
	Diff   *state.Diff
	Result *TransactionExecutionResult
	Err    error
}

// Engine is the replay driver (§4.1): the single entry point that
// demultiplexes the input stream, builds the per-transaction execution
// environment, and conditionally persists dispatcher output.
type Engine struct {
	Store         storage.Store
	EngineAccount string
	Dispatcher    *Dispatcher
}

// NewEngine builds a replay driver around store, keyed to engineAccount. A
// nil interp defaults the dispatcher to vm.SimpleInterpreter{} (§4.4).
func NewEngine(store storage.Store, engineAccount string, interp vm.Interpreter) *Engine {
	return &Engine{
		Store:         store,
		EngineAccount: engineAccount,
		Dispatcher:    NewDispatcher(engineAccount, interp),
	}
}

// Consume is the driver's sole entry point (§4.1).
func (e *Engine) Consume(msg Message) (*Outcome, error) {
	switch m := msg.(type) {
	case BlockMessage:
		if err := saveBlock(e.Store, m); err != nil {
			return nil, err
		}
		gometrics.IncrCounter([]string{"consume", "block"}, 1)
		log.Debug("core: block added", "height", m.Height, "hash", m.Hash)
		return &Outcome{Kind: OutcomeBlockAdded, Hash: m.Hash}, nil
	case *TransactionMessage:
		return e.consumeTransaction(m, true)
	default:
		return nil, fmt.Errorf("core: unrecognized message type %T", msg)
	}
}

// ExecuteTransactionMessage runs msg through the same path as Consume but
// never persists the resulting diff or hashchain update (§6: "a one-shot
// execute_transaction_message... does not persist — used for dry-run").
func (e *Engine) ExecuteTransactionMessage(msg *TransactionMessage) (*Outcome, error) {
	return e.consumeTransaction(msg, false)
}

func (e *Engine) consumeTransaction(msg *TransactionMessage, persistOnSuccess bool) (*Outcome, error) {
	if !msg.Succeeded {
		gometrics.IncrCounter([]string{"consume", "tx", "failed_ignored"}, 1)
		log.Debug("core: failed transaction ignored", "receipt_id", msg.NearReceiptID)
		return &Outcome{Kind: OutcomeFailedTransactionIgnored}, nil
	}

	block, err := loadBlock(e.Store, msg.BlockHash)
	if err != nil {
		return nil, err
	}

	v := state.New(e.Store, block.Height, msg.Position, msg.PromiseResults)
	env := vm.Env{
		Signer:          msg.Signer,
		Caller:          msg.Caller,
		CurrentAccount:  e.EngineAccount,
		BlockHeight:     block.Height,
		BlockTimestamp:  block.Metadata.Timestamp,
		AttachedDeposit: msg.AttachedDeposit,
		RandomSeed:      block.Metadata.RandomSeed,
	}

	hash, result, dispatchErr := e.Dispatcher.Execute(v, env, msg)

	if dispatchErr == nil {
		dispatchErr = e.applyHashchainStep(v, block.Height, msg, &result)
	}

	persist := persistOnSuccess && shouldPersist(result, dispatchErr)
	if persist {
		if err := commitDiff(e.Store, v.GetTransactionDiff()); err != nil {
			return nil, err
		}
		gometrics.IncrCounter([]string{"consume", "tx", "included"}, 1)
	}

	log.Debug("core: transaction dispatched", "method", msg.Kind.MethodName(), "hash", hash, "persisted", persist, "err", dispatchErr)

	outcome := &Outcome{Kind: OutcomeTransactionIncluded, Hash: hash, Result: result, Err: dispatchErr}
	if persist {
		outcome.Diff = v.GetTransactionDiff()
	}
	return outcome, nil
}

// applyHashchainStep implements §4.2's "hashchain update step": after a
// successful dispatch, fold (method, input, output, bloom) into the
// hashchain state. StartHashchain seeds the state instead of folding into
// it, and Unknown never touches the hashchain at all (§9 resolved open
// question). A fold failure other than hashchain.ErrNotFound downgrades
// the dispatcher's result to the hashchain error, per §4.2/§9.
func (e *Engine) applyHashchainStep(v *state.View, height uint64, msg *TransactionMessage, result **TransactionExecutionResult) error {
	if _, ok := msg.Kind.(UnknownKind); ok {
		return nil
	}
	if shk, ok := msg.Kind.(StartHashchainKind); ok {
		if err := e.seedHashchain(v, height, shk); err != nil {
			*result = nil
			return err
		}
		return nil
	}

	hc, err := hashchain.Load(v)
	if err != nil {
		if errors.Is(err, hashchain.ErrNotFound) {
			return nil
		}
		*result = nil
		return wrapErr(ErrKindHashchain, err)
	}

	input, output, bloom, err := hashchainIO(msg.Kind, *result)
	if err != nil {
		*result = nil
		return wrapErr(ErrKindHashchain, err)
	}
	if err := hc.AddBlockTx(height, msg.Kind.MethodName(), input, output, bloom); err != nil {
		*result = nil
		return wrapErr(ErrKindHashchain, err)
	}
	if err := hashchain.Save(v, hc); err != nil {
		*result = nil
		return wrapErr(ErrKindHashchain, err)
	}
	return nil
}

func (e *Engine) seedHashchain(v *state.View, currentHeight uint64, shk StartHashchainKind) error {
	chainID := big.NewInt(0)
	if es, err := state.LoadEngineState(v); err == nil {
		chainID = es.ChainID
	}
	hc := hashchain.Start(chainID, []byte(e.EngineAccount), shk.SeedHeight, shk.SeedHashchain, currentHeight)
	if err := hashchain.Save(v, hc); err != nil {
		return wrapErr(ErrKindHashchain, err)
	}
	return nil
}

// commitDiff writes every entry of diff to store, in the diff's own
// lexicographic key order (§4.5), applying sets and deletes as staged.
func commitDiff(store storage.Store, diff *state.Diff) error {
	for _, entry := range diff.Entries() {
		switch entry.Op.Kind {
		case state.OpSet:
			if err := store.Put(entry.Key, entry.Op.Value); err != nil {
				return wrapErr(ErrKindIo, err)
			}
		case state.OpDelete:
			if err := store.Delete(entry.Key); err != nil {
				return wrapErr(ErrKindIo, err)
			}
		}
	}
	return nil
}
