// Package connector implements the eth-connector record, the fungible-token
// ledger it backs, and every bridge / fungible-token dispatcher handler
// (§3, §4.2). It is grounded on the teacher's pending-journal idiom
// (revm_bridge/statedb.go's pendingBasic/pendingStorage maps), generalized
// from an EVM-account journal into a NEP-141 ledger journal over the same
// diff-capturing state.View.
package connector

import (
	"math/big"

	auroraState "github.com/aurora-is-near/engine-standalone/state"
	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// EthConnector is the record created exactly once by `NewConnector` (§3).
type EthConnector struct {
	ProverAccount    string
	CustodianAddress common.Address
}

type rlpEthConnector struct {
	ProverAccount    string
	CustodianAddress []byte
}

// Encode serializes the connector record via RLP.
func (c *EthConnector) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(&rlpEthConnector{
		ProverAccount:    c.ProverAccount,
		CustodianAddress: c.CustodianAddress.Bytes(),
	})
}

func decodeConnector(data []byte) (*EthConnector, error) {
	var w rlpEthConnector
	if err := rlp.DecodeBytes(data, &w); err != nil {
		return nil, err
	}
	return &EthConnector{
		ProverAccount:    w.ProverAccount,
		CustodianAddress: common.BytesToAddress(w.CustodianAddress),
	}, nil
}

// Load reads the connector record, or returns ErrConnectorNotInitialized if
// `NewConnector` has never run.
func Load(v *auroraState.View) (*EthConnector, error) {
	raw, err := v.Get(storage.ConnectorRootKey())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrConnectorNotInitialized
	}
	return decodeConnector(raw)
}

// Save stages the connector record write into v's diff. Unless
// allowOverwrite is set it refuses to overwrite an existing record: the
// connector is created exactly once (§3), and only explicit admin updates
// pass allowOverwrite.
func Save(v *auroraState.View, c *EthConnector, allowOverwrite bool) error {
	if !allowOverwrite {
		if _, err := Load(v); err == nil {
			return ErrConnectorAlreadyInitialized
		}
	}
	raw, err := c.Encode()
	if err != nil {
		return err
	}
	v.Put(storage.ConnectorRootKey(), raw)
	return nil
}

// --- Fungible-token ledger (part of the eth-connector subsystem, §3) ---

// GetBalance returns an account's eth-on-near/eth-on-aurora balance,
// defaulting to zero if the account has never been credited.
func GetBalance(v *auroraState.View, account string) (*big.Int, error) {
	raw, err := v.Get(storage.FTBalanceKey(account))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return new(big.Int), nil
	}
	return new(big.Int).SetBytes(raw), nil
}

// SetBalance stages a balance write.
func SetBalance(v *auroraState.View, account string, balance *big.Int) {
	v.Put(storage.FTBalanceKey(account), balance.Bytes())
}

// AddBalance credits amount to account's balance and returns the new value.
func AddBalance(v *auroraState.View, account string, amount *big.Int) (*big.Int, error) {
	bal, err := GetBalance(v, account)
	if err != nil {
		return nil, err
	}
	bal = new(big.Int).Add(bal, amount)
	SetBalance(v, account, bal)
	return bal, nil
}

// SubBalance debits amount from account's balance, failing if the balance
// would go negative.
func SubBalance(v *auroraState.View, account string, amount *big.Int) (*big.Int, error) {
	bal, err := GetBalance(v, account)
	if err != nil {
		return nil, err
	}
	if bal.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	bal = new(big.Int).Sub(bal, amount)
	SetBalance(v, account, bal)
	return bal, nil
}

func getSupply(v *auroraState.View, key []byte) (*big.Int, error) {
	raw, err := v.Get(key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return new(big.Int), nil
	}
	return new(big.Int).SetBytes(raw), nil
}

// AddSupplyOnNear/AddSupplyOnAurora track the two separate total-supply
// counters (§3): minting on one side of the bridge never implicitly moves
// the other counter.
func AddSupplyOnNear(v *auroraState.View, amount *big.Int) error {
	s, err := getSupply(v, storage.FTSupplyOnNearKey())
	if err != nil {
		return err
	}
	v.Put(storage.FTSupplyOnNearKey(), new(big.Int).Add(s, amount).Bytes())
	return nil
}

func AddSupplyOnAurora(v *auroraState.View, amount *big.Int) error {
	s, err := getSupply(v, storage.FTSupplyOnAuroraKey())
	if err != nil {
		return err
	}
	v.Put(storage.FTSupplyOnAuroraKey(), new(big.Int).Add(s, amount).Bytes())
	return nil
}

// IsProofUsed reports whether a deposit proof with this content hash has
// already been consumed by a prior FinishDeposit (§4.2, idempotent replay).
func IsProofUsed(v *auroraState.View, proofHash common.Hash) (bool, error) {
	return v.Has(storage.UsedProofKey(proofHash))
}

// MarkProofUsed records a proof's content hash in the used-proof set.
func MarkProofUsed(v *auroraState.View, proofHash common.Hash) {
	v.Put(storage.UsedProofKey(proofHash), []byte{1})
}

// IsStorageRegistered / RegisterStorage / UnregisterStorage implement the
// `StorageDeposit`/`StorageUnregister` bookkeeping (§4.2). No real storage
// cost accounting exists in this standalone replay (the upstream chain
// owns that); only the registration flag is modeled, which is all the
// dispatcher's callers (ft_transfer/ft_transfer_call preconditions) need.
func IsStorageRegistered(v *auroraState.View, account string) (bool, error) {
	return v.Has(storage.FTStorageRegisteredKey(account))
}

func RegisterStorage(v *auroraState.View, account string) {
	v.Put(storage.FTStorageRegisteredKey(account), []byte{1})
}

func UnregisterStorage(v *auroraState.View, account string) {
	v.Delete(storage.FTStorageRegisteredKey(account))
}

// CreditErc20Mirror mints amount to account within a single ERC-20 mirror
// token's own ledger, distinct from the native eth-on-aurora balance space
// (§4.2, `ft_on_transfer` dispatched by a caller other than the engine
// account, i.e. "credit the corresponding ERC-20 mirror").
func CreditErc20Mirror(v *auroraState.View, tokenID string, account common.Address, amount *big.Int) error {
	key := storage.Erc20MirrorBalanceKey(tokenID, account)
	raw, err := v.Get(key)
	if err != nil {
		return err
	}
	bal := new(big.Int)
	if raw != nil {
		bal.SetBytes(raw)
	}
	bal.Add(bal, amount)
	v.Put(key, bal.Bytes())
	return nil
}

// SetPausedFlags stages the fungible-token subsystem's own pause bitmask,
// distinct from the engine-wide Paused flag and the precompile mask (§4.2).
func SetPausedFlags(v *auroraState.View, mask uint64) {
	v.Put(storage.FTPausedFlagsKey(), big.NewInt(0).SetUint64(mask).Bytes())
}

// GetPausedFlags reads the fungible-token subsystem's pause bitmask.
func GetPausedFlags(v *auroraState.View) (uint64, error) {
	raw, err := v.Get(storage.FTPausedFlagsKey())
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return new(big.Int).SetBytes(raw).Uint64(), nil
}
