package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionKind is the closed, ~30-variant sum type a TransactionMessage
// carries (§3, §6). Each concrete kind below reports the fixed method name
// used both for dispatch and as the hashchain's method-name input; adding a
// variant is a protocol change (§9), so the set is considered closed and
// execute() switches over it exhaustively rather than via a registry.
type TransactionKind interface {
	MethodName() string
}

// --- EVM payloads ---

type SubmitKind struct{ Raw []byte }

func (SubmitKind) MethodName() string { return "submit" }

type SubmitWithArgsKind struct {
	Raw         []byte
	MaxGasPrice *big.Int
	MaxGas      uint64
}

func (SubmitWithArgsKind) MethodName() string { return "submit_with_args" }

type CallKind struct {
	Address common.Address
	Value   *big.Int
	Input   []byte
	Gas     uint64
}

func (CallKind) MethodName() string { return "call" }

type DeployKind struct{ InitCode []byte }

func (DeployKind) MethodName() string { return "deploy_code" }

// --- Bridge / fungible-token operations ---

type DeployErc20Kind struct{ TokenID string }

func (DeployErc20Kind) MethodName() string { return "deploy_erc20_token" }

type FtOnTransferKind struct {
	SenderID string
	Amount   *big.Int
	Msg      string
}

func (FtOnTransferKind) MethodName() string { return "ft_on_transfer" }

type FtTransferKind struct {
	Receiver string
	Amount   *big.Int
	Memo     string
}

func (FtTransferKind) MethodName() string { return "ft_transfer" }

type FtTransferCallKind struct {
	Receiver string
	Amount   *big.Int
	Memo     string
	Msg      string
	Gas      uint64
}

func (FtTransferCallKind) MethodName() string { return "ft_transfer_call" }

type FtResolveTransferKind struct {
	SenderID     string
	Receiver     string
	RefundAmount *big.Int
}

func (FtResolveTransferKind) MethodName() string { return "ft_resolve_transfer" }

type WithdrawKind struct {
	Recipient string
	Amount    *big.Int
}

func (WithdrawKind) MethodName() string { return "withdraw" }

type DepositKind struct{ RawProof []byte }

func (DepositKind) MethodName() string { return "deposit" }

type FinishDepositKind struct{ RawProof []byte }

func (FinishDepositKind) MethodName() string { return "finish_deposit" }

type StorageDepositKind struct{ Account string }

func (StorageDepositKind) MethodName() string { return "storage_deposit" }

type StorageUnregisterKind struct{ Account string }

func (StorageUnregisterKind) MethodName() string { return "storage_unregister" }

type StorageWithdrawKind struct{ Account string }

func (StorageWithdrawKind) MethodName() string { return "storage_withdraw" }

type SetPausedFlagsKind struct{ Mask uint64 }

func (SetPausedFlagsKind) MethodName() string { return "set_paused_flags" }

// --- Admin operations ---

type RegisterRelayerKind struct {
	Account string
	Address common.Address
}

func (RegisterRelayerKind) MethodName() string { return "register_relayer" }

type RefundOnErrorKind struct {
	To     common.Address
	Amount *big.Int
}

func (RefundOnErrorKind) MethodName() string { return "refund_on_error" }

type NewConnectorKind struct {
	ProverAccount    string
	CustodianAddress common.Address
}

func (NewConnectorKind) MethodName() string { return "new_connector" }

type SetConnectorDataKind struct {
	ProverAccount    string
	CustodianAddress common.Address
}

func (SetConnectorDataKind) MethodName() string { return "set_eth_connector_contract_data" }

type NewEngineKind struct {
	ChainID      *big.Int
	Owner        string
	BridgeProver string
}

func (NewEngineKind) MethodName() string { return "new" }

type FactoryUpdateKind struct{ Code []byte }

func (FactoryUpdateKind) MethodName() string { return "factory_update" }

type FactoryUpdateAddressVersionKind struct {
	Address common.Address
	Version uint32
}

func (FactoryUpdateAddressVersionKind) MethodName() string {
	return "factory_update_address_version"
}

type FactorySetWnearAddressKind struct{ Address common.Address }

func (FactorySetWnearAddressKind) MethodName() string { return "factory_set_wnear_address" }

type FundXccSubAccountKind struct {
	TargetAccount string
	WnearAccount  string
}

func (FundXccSubAccountKind) MethodName() string { return "fund_xcc_sub_account" }

type SetUpgradeDelayBlocksKind struct{ Blocks uint64 }

func (SetUpgradeDelayBlocksKind) MethodName() string { return "set_upgrade_delay_blocks" }

type PauseContractKind struct{}

func (PauseContractKind) MethodName() string { return "pause_contract" }

type ResumeContractKind struct{}

func (ResumeContractKind) MethodName() string { return "resume_contract" }

type SetKeyManagerKind struct{ KeyManager *string }

func (SetKeyManagerKind) MethodName() string { return "set_key_manager" }

type AddRelayerKeyKind struct{ PublicKey []byte }

func (AddRelayerKeyKind) MethodName() string { return "add_relayer_key" }

type RemoveRelayerKeyKind struct{ PublicKey []byte }

func (RemoveRelayerKeyKind) MethodName() string { return "remove_relayer_key" }

type PausePrecompilesKind struct{ Mask uint64 }

func (PausePrecompilesKind) MethodName() string { return "pause_precompiles" }

type ResumePrecompilesKind struct{ Mask uint64 }

func (ResumePrecompilesKind) MethodName() string { return "resume_precompiles" }

type SetOwnerKind struct{ Owner string }

func (SetOwnerKind) MethodName() string { return "set_owner" }

type StartHashchainKind struct {
	SeedHeight    uint64
	SeedHashchain [32]byte
}

func (StartHashchainKind) MethodName() string { return "start_hashchain" }

// --- Sentinel ---

// UnknownKind is the never-hashchained sentinel for any transaction kind
// this replay core does not recognize (§3(d), §9 resolved open question:
// Unknown never produces a hashchain entry).
type UnknownKind struct{}

func (UnknownKind) MethodName() string { return "" }
