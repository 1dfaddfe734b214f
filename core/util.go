package core

import (
	"errors"
	"math/big"

	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var errAlreadyInitialized = errors.New("core: engine already initialized")

func keccak(data []byte) []byte {
	return crypto.Keccak256(data)
}

// bigToUint256 converts a possibly-nil *big.Int (meaning "zero") to the
// uint256.Int the EVM façade's balance arithmetic expects.
func bigToUint256(v *big.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	out, _ := uint256.FromBig(v)
	return out
}

func nep141ForErc20(addr common.Address) []byte {
	return storage.NEP141ForERC20Key(addr)
}
