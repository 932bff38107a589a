// Package geth provides an adapter layer between evalchain's type system
// and go-ethereum, for hosts that anchor the registry on an Ethereum
// ledger. This is the only package that imports go-ethereum directly; all
// other evalchain packages use evalchain/core/types.
package geth

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/evalchain/evalchain/core/types"
)

// --- Address and Hash conversion (zero-copy, layout-compatible) ---

// ToGethAddress converts an evalchain Address to a go-ethereum Address.
func ToGethAddress(a types.Address) gethcommon.Address {
	return gethcommon.Address(a)
}

// FromGethAddress converts a go-ethereum Address to an evalchain Address.
func FromGethAddress(a gethcommon.Address) types.Address {
	return types.Address(a)
}

// ToGethHash converts an evalchain Hash to a go-ethereum Hash.
func ToGethHash(h types.Hash) gethcommon.Hash {
	return gethcommon.Hash(h)
}

// FromGethHash converts a go-ethereum Hash to an evalchain Hash.
func FromGethHash(h gethcommon.Hash) types.Hash {
	return types.Hash(h)
}

// --- ABI word packing ---

// wordFromUint64 encodes v as a 32-byte big-endian ABI word.
func wordFromUint64(v uint64) [32]byte {
	return uint256.NewInt(v).Bytes32()
}

// wordFromBool encodes b as an ABI word (0 or 1).
func wordFromBool(b bool) [32]byte {
	if b {
		return uint256.NewInt(1).Bytes32()
	}
	return uint256.NewInt(0).Bytes32()
}

// wordFromAddress left-pads a 20-byte address into an ABI word.
func wordFromAddress(a types.Address) [32]byte {
	var w [32]byte
	copy(w[12:], a[:])
	return w
}
