package core

import (
	"github.com/aurora-is-near/engine-standalone/connector"
	vm "github.com/aurora-is-near/engine-standalone/core/vm"
	"github.com/ethereum/go-ethereum/common"
)

// ResultKind distinguishes the shapes TransactionExecutionResult can take
// (§4.1 step 5, §4.2): the outer Result<Option<_>, Error> is modeled as
// (result, error) return values from execute(); this type covers the inner
// Option<TransactionExecutionResult>.
type ResultKind uint8

const (
	// ResultNone is `Ok(None)`: the handler mutated state but has no
	// address/promise/submit payload to report (most bridge/admin ops).
	ResultNone ResultKind = iota
	ResultDeployErc20
	ResultPromise
	ResultSubmit
)

// TransactionExecutionResult is the uniform value execute() produces on the
// `Ok(...)` branch (§4.2). A non-success vm.SubmitResult.Status (revert,
// out-of-gas, out-of-fund) is still `Ok(Some(Submit(Ok(status))))` --
// scenario S3 -- and persists like any other successful dispatch; only a
// genuine façade error (bad signature, bad nonce, decode failure) produces
// the `Err(_)` branch, via the plain `error` return of execute()/Execute().
type TransactionExecutionResult struct {
	Kind               ResultKind
	DeployErc20Address common.Address
	Promises           []connector.Promise
	Submit             *vm.SubmitResult
}

// shouldPersist implements the persistence rule of §4.1 step 5: everything
// in the `Ok(...)` branch persists, including a reverted/out-of-gas/
// out-of-fund Submit result, since that status lives inside the Ok branch.
// Only a dispatch-level error (the `Err(_)` case) withholds persistence.
func shouldPersist(result *TransactionExecutionResult, dispatchErr error) bool {
	return dispatchErr == nil
}
