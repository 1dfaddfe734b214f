package core

import (
	"github.com/aurora-is-near/engine-standalone/connector"
	"github.com/aurora-is-near/engine-standalone/state"
	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/common"
)

// Admin operations mutate engine-state fields directly (§4.2). None of
// these touch the EVM façade or the fungible-token ledger; they are plain
// state-record edits. No owner check is made here, in the dispatcher or in
// the driver: any caller's admin transaction is applied.

func handleNewEngine(v *state.View, k NewEngineKind) error {
	if _, err := state.LoadEngineState(v); err == nil {
		return wrapErr(ErrKindEngineState, errAlreadyInitialized)
	}
	es := &state.EngineState{
		ChainID:      k.ChainID,
		Owner:        k.Owner,
		BridgeProver: k.BridgeProver,
	}
	if err := state.SaveEngineState(v, es); err != nil {
		return wrapErr(ErrKindEngineState, err)
	}
	return nil
}

func handleSetOwner(v *state.View, k SetOwnerKind) error {
	return mutateEngineState(v, func(es *state.EngineState) { es.Owner = k.Owner })
}

func handleSetUpgradeDelayBlocks(v *state.View, k SetUpgradeDelayBlocksKind) error {
	return mutateEngineState(v, func(es *state.EngineState) { es.UpgradeDelayBlocks = k.Blocks })
}

func handlePauseContract(v *state.View) error {
	return mutateEngineState(v, func(es *state.EngineState) { es.Paused = true })
}

func handleResumeContract(v *state.View) error {
	return mutateEngineState(v, func(es *state.EngineState) { es.Paused = false })
}

func handleSetKeyManager(v *state.View, k SetKeyManagerKind) error {
	return mutateEngineState(v, func(es *state.EngineState) { es.KeyManager = k.KeyManager })
}

func mutateEngineState(v *state.View, f func(*state.EngineState)) error {
	es, err := state.LoadEngineState(v)
	if err != nil {
		return wrapErr(ErrKindEngineState, err)
	}
	f(es)
	if err := state.SaveEngineState(v, es); err != nil {
		return wrapErr(ErrKindEngineState, err)
	}
	return nil
}

func handleRegisterRelayer(v *state.View, k RegisterRelayerKind) error {
	v.Put(storage.RelayerAddressKey(k.Account), k.Address.Bytes())
	return nil
}

func handleAddRelayerKey(v *state.View, k AddRelayerKeyKind) error {
	v.Put(storage.RelayerKeyKey(k.PublicKey), []byte{1})
	return nil
}

func handleRemoveRelayerKey(v *state.View, k RemoveRelayerKeyKind) error {
	v.Delete(storage.RelayerKeyKey(k.PublicKey))
	return nil
}

func handlePausePrecompiles(v *state.View, k PausePrecompilesKind) error {
	mask, err := state.LoadPrecompileMask(v)
	if err != nil {
		return wrapErr(ErrKindEngineState, err)
	}
	if err := state.SavePrecompileMask(v, mask|k.Mask); err != nil {
		return wrapErr(ErrKindEngineState, err)
	}
	return nil
}

func handleResumePrecompiles(v *state.View, k ResumePrecompilesKind) error {
	mask, err := state.LoadPrecompileMask(v)
	if err != nil {
		return wrapErr(ErrKindEngineState, err)
	}
	if err := state.SavePrecompileMask(v, mask&^k.Mask); err != nil {
		return wrapErr(ErrKindEngineState, err)
	}
	return nil
}

func handleNewConnector(v *state.View, k NewConnectorKind) error {
	c := &connector.EthConnector{ProverAccount: k.ProverAccount, CustodianAddress: k.CustodianAddress}
	if err := connector.Save(v, c, false); err != nil {
		return wrapErr(ErrKindConnectorInit, err)
	}
	return nil
}

func handleSetConnectorData(v *state.View, k SetConnectorDataKind) error {
	c := &connector.EthConnector{ProverAccount: k.ProverAccount, CustodianAddress: k.CustodianAddress}
	if err := connector.Save(v, c, true); err != nil {
		return wrapErr(ErrKindConnectorInit, err)
	}
	return nil
}

func handleFactoryUpdate(v *state.View, k FactoryUpdateKind) error {
	v.Put(storage.FactoryRouterCodeKey(), k.Code)
	return nil
}

func handleFactoryUpdateAddressVersion(v *state.View, k FactoryUpdateAddressVersionKind) error {
	v.Put(storage.FactoryAddressVersionKey(k.Address), uint32ToBytes(k.Version))
	return nil
}

func handleFactorySetWnearAddress(v *state.View, k FactorySetWnearAddressKind) error {
	v.Put(storage.FactoryWnearAddressKey(), k.Address.Bytes())
	return nil
}

// handleFundXccSubAccount deploys the current router code version to the
// address derived for targetAccount's cross-contract-call sub-account, so
// later EVM calls against it see non-empty code (§4.2, `fund_xcc_sub_account`).
// Funding itself is recorded as a queued promise: attaching native tokens to
// a NEAR sub-account is an upstream-chain transfer this standalone core
// never performs directly (§1).
func handleFundXccSubAccount(v *state.View, rec *connector.Recorder, k FundXccSubAccountKind, engineAddr common.Address) error {
	code, err := v.Get(storage.FactoryRouterCodeKey())
	if err != nil {
		return wrapErr(ErrKindXccFund, err)
	}
	addr := xccSubAccountAddress(engineAddr, k.TargetAccount)
	if len(code) > 0 {
		v.Put(storage.CodeKey(addr), code)
	}
	rec.QueuePromise(k.TargetAccount, "fund", nil, nil, 0)
	return nil
}

func xccSubAccountAddress(engineAddr common.Address, targetAccount string) common.Address {
	seed := append(append([]byte{}, engineAddr.Bytes()...), []byte(targetAccount)...)
	return common.BytesToAddress(keccak(seed)[12:])
}

func uint32ToBytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
