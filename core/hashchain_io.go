package core

import (
	"github.com/aurora-is-near/engine-standalone/hashchain"
	"github.com/ethereum/go-ethereum/rlp"
)

// submitResultWire is the deterministic RLP shape a vm.SubmitResult folds
// into the hashchain's "output" field. Logs are folded separately into the
// bloom rather than duplicated here, matching §4.3's tuple shape
// (method, input, output, bloom) where the bloom already summarizes logs.
type submitResultWire struct {
	Status          uint8
	GasUsed         uint64
	Output          []byte
	HasContract     bool
	ContractAddress []byte
}

// resultSummary is the RLP shape used for every TransactionExecutionResult
// that is not a Submit outcome. It need only be deterministic given the
// same handler execution, not byte-compatible with any external system,
// since this engine's hashchain is a self-contained audit chain (§4.3).
type resultSummary struct {
	Kind               uint8
	DeployErc20Address []byte
	PromiseCount       int
}

// hashchainIO derives the (method-input, output, bloom) tuple §4.3 folds
// for one transaction. Submit/SubmitWithArgs use their raw signed-tx bytes
// as input, matching scenario S2's `keccak("submit" ∥ raw ∥ ...)`; every
// other kind RLP-encodes its own fields as input, since no external
// consumer needs those bytes to match a second implementation bit-for-bit.
func hashchainIO(kind TransactionKind, result *TransactionExecutionResult) ([]byte, []byte, hashchain.Bloom, error) {
	var input []byte
	switch k := kind.(type) {
	case SubmitKind:
		input = k.Raw
	case SubmitWithArgsKind:
		input = k.Raw
	default:
		enc, err := rlp.EncodeToBytes(kind)
		if err != nil {
			return nil, nil, hashchain.Bloom{}, err
		}
		input = enc
	}

	var bloom hashchain.Bloom
	var output []byte
	var err error

	if result != nil && result.Kind == ResultSubmit && result.Submit != nil {
		wire := submitResultWire{
			Status:  uint8(result.Submit.Status),
			GasUsed: result.Submit.GasUsed,
			Output:  result.Submit.Output,
		}
		if result.Submit.ContractAddress != nil {
			wire.HasContract = true
			wire.ContractAddress = result.Submit.ContractAddress.Bytes()
		}
		// §4.3: "transaction bloom is the bitwise OR over all logs" -- fold
		// each log into its own bloom first, then combine with hashchain.Or
		// rather than accumulating directly into a single filter.
		perLog := make([]hashchain.Bloom, len(result.Submit.Logs))
		for i, lg := range result.Submit.Logs {
			perLog[i].AddLog(lg.Address, lg.Topics)
		}
		bloom = hashchain.Or(perLog...)
		output, err = rlp.EncodeToBytes(&wire)
	} else if result != nil {
		summary := resultSummary{Kind: uint8(result.Kind), PromiseCount: len(result.Promises)}
		if result.Kind == ResultDeployErc20 {
			summary.DeployErc20Address = result.DeployErc20Address.Bytes()
		}
		output, err = rlp.EncodeToBytes(&summary)
	}
	if err != nil {
		return nil, nil, hashchain.Bloom{}, err
	}
	return input, output, bloom, nil
}
