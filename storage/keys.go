package storage

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Tag values for the sub-prefixes of the byte-map key space (§6). Exact
// values are an implementation choice but must stay stable across a given
// deployment, so they are declared once here and never renumbered.
const (
	TagEngineState   byte = 0x00
	TagEVMNonce      byte = 0x01
	TagEVMBalance    byte = 0x02
	TagEVMCode       byte = 0x03
	TagEVMStorage    byte = 0x04
	TagEVMGeneration byte = 0x05
	TagConnectorRoot byte = 0x06
	TagFTRoot        byte = 0x07
	TagUsedProof     byte = 0x08
	TagPausedMask    byte = 0x09
	TagRelayerAddr   byte = 0x0A
	TagERC20Map      byte = 0x0B
	TagXCCRouter     byte = 0x0C
	TagHashchain     byte = 0x0D
	TagBlockRecord   byte = 0x0E
)

func tagged(tag byte, parts ...[]byte) []byte {
	n := 1
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	out = append(out, tag)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// EngineStateKey is the single key holding the engine-state record.
func EngineStateKey() []byte { return tagged(TagEngineState) }

// HashchainStateKey is the single key holding the hashchain state record.
func HashchainStateKey() []byte { return tagged(TagHashchain) }

// NonceKey addresses an account's EVM nonce.
func NonceKey(addr common.Address) []byte { return tagged(TagEVMNonce, addr.Bytes()) }

// BalanceKey addresses an account's EVM balance.
func BalanceKey(addr common.Address) []byte { return tagged(TagEVMBalance, addr.Bytes()) }

// CodeKey addresses an account's deployed code.
func CodeKey(addr common.Address) []byte { return tagged(TagEVMCode, addr.Bytes()) }

// StorageKey addresses a single EVM storage slot.
func StorageKey(addr common.Address, slot common.Hash) []byte {
	return tagged(TagEVMStorage, addr.Bytes(), slot.Bytes())
}

// GenerationKey addresses an account's storage generation counter, bumped on
// self-destruct so stale slots written under an earlier generation are
// logically orphaned without an explicit sweep.
func GenerationKey(addr common.Address) []byte { return tagged(TagEVMGeneration, addr.Bytes()) }

// ConnectorRootKey is the single key holding the eth-connector record.
func ConnectorRootKey() []byte { return tagged(TagConnectorRoot) }

// FTBalanceKey addresses a fungible-token ledger account's balance.
func FTBalanceKey(account string) []byte { return tagged(TagFTRoot, []byte("b:"+account)) }

// FTSupplyOnNearKey and FTSupplyOnAuroraKey address the two total-supply counters.
func FTSupplyOnNearKey() []byte   { return tagged(TagFTRoot, []byte("supply:near")) }
func FTSupplyOnAuroraKey() []byte { return tagged(TagFTRoot, []byte("supply:aurora")) }

// UsedProofKey addresses the used-proof set, keyed by the proof's own digest.
func UsedProofKey(proofHash common.Hash) []byte { return tagged(TagUsedProof, proofHash.Bytes()) }

// PausedMaskKey is the single key holding the precompile pause bitmask.
func PausedMaskKey() []byte { return tagged(TagPausedMask) }

// FTPausedFlagsKey is the single key holding the fungible-token subsystem's
// own pause bitmask, set via the `SetPausedFlags` bridge operation.
func FTPausedFlagsKey() []byte { return tagged(TagFTRoot, []byte("pausedflags")) }

// Erc20MirrorBalanceKey addresses a single account's balance within a
// specific NEP-141-backed ERC-20 mirror's own ledger, distinct from the
// native eth-on-aurora/eth-on-near balance space.
func Erc20MirrorBalanceKey(tokenID string, account common.Address) []byte {
	return tagged(TagFTRoot, append([]byte("erc20:"+tokenID+":"), account.Bytes()...))
}

// FTStorageRegisteredKey addresses whether an account has paid the
// storage-deposit required to hold a fungible-token balance.
func FTStorageRegisteredKey(account string) []byte {
	return tagged(TagFTRoot, []byte("registered:"+account))
}

// RelayerAddressKey addresses the EVM address registered for a relayer account.
func RelayerAddressKey(account string) []byte {
	return tagged(TagRelayerAddr, []byte("acct:"+account))
}

// RelayerKeyKey addresses membership of a single public key in the
// function-call-key allowlist managed by `add_relayer_key`/`remove_relayer_key`.
func RelayerKeyKey(publicKey []byte) []byte {
	return tagged(TagRelayerAddr, append([]byte("key:"), publicKey...))
}

// ERC20ForNEP141Key and NEP141ForERC20Key address the two halves of the
// NEP-141 <-> ERC-20 bi-map.
func ERC20ForNEP141Key(tokenID string) []byte { return tagged(TagERC20Map, []byte("n2e:"+tokenID)) }
func NEP141ForERC20Key(addr common.Address) []byte {
	return tagged(TagERC20Map, append([]byte("e2n:"), addr.Bytes()...))
}

// XCCRouterCodeKey addresses the deployed router code version for a sub-account.
func XCCRouterCodeKey(account string) []byte {
	return tagged(TagXCCRouter, []byte("acct:"+account))
}

// FactoryRouterCodeKey is the single key holding the current XCC router
// contract code, set by the `factory_update` admin operation.
func FactoryRouterCodeKey() []byte { return tagged(TagXCCRouter, []byte("factory:code")) }

// FactoryAddressVersionKey addresses the deployed router code version for a
// specific sub-account address, set by `factory_update_address_version`.
func FactoryAddressVersionKey(addr common.Address) []byte {
	return tagged(TagXCCRouter, append([]byte("ver:"), addr.Bytes()...))
}

// FactoryWnearAddressKey is the single key holding the wNEAR ERC-20 mirror
// address, set by `factory_set_wnear_address`.
func FactoryWnearAddressKey() []byte { return tagged(TagXCCRouter, []byte("wnear")) }

// BlockRecordKey addresses a block record by its 32-byte block hash.
func BlockRecordKey(hash common.Hash) []byte { return tagged(TagBlockRecord, hash.Bytes()) }

// BlockPositionPrefix renders a (height, position) pair into a sortable
// 10-byte big-endian prefix.
func BlockPositionPrefix(height uint64, position uint16) []byte {
	buf := make([]byte, 10)
	binary.BigEndian.PutUint64(buf[:8], height)
	binary.BigEndian.PutUint16(buf[8:], position)
	return buf
}
