package connector

import "math/big"

// Promise is a single queued cross-contract-call intent. The standalone
// core records these but never schedules or dispatches them (§1, §4.4):
// a handler that wants to call back into NEAR (e.g. ft_transfer_call's
// ft_on_transfer leg, or an exit-to-near withdrawal) appends one here and
// the outer replay driver surfaces the accumulated list to its caller.
type Promise struct {
	ReceiverID      string
	MethodName      string
	Args            []byte
	AttachedDeposit *big.Int
	Gas             uint64
}

// Recorder is the connector package's PromiseHandler: it satisfies
// core/vm.PromiseHandler so an Interpreter can queue intents through the
// same seam a dispatcher handler uses, and exposes the accumulated list
// for the driver to attach to its outcome.
type Recorder struct {
	queued []Promise
}

// NewRecorder returns an empty promise recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// QueuePromise implements core/vm.PromiseHandler.
func (r *Recorder) QueuePromise(receiverID, methodName string, args []byte, attachedDeposit *big.Int, gas uint64) uint32 {
	id := uint32(len(r.queued))
	r.queued = append(r.queued, Promise{
		ReceiverID:      receiverID,
		MethodName:      methodName,
		Args:            args,
		AttachedDeposit: attachedDeposit,
		Gas:             gas,
	})
	return id
}

// Promises returns every intent queued so far, in creation order.
func (r *Recorder) Promises() []Promise { return r.queued }
