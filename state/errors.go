package state

import "errors"

// ErrEngineStateNotFound is returned by LoadEngineState when the engine has
// never been initialized by a `new` admin transaction.
var ErrEngineStateNotFound = errors.New("state: engine state not found")
