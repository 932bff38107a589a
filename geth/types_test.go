package geth

import (
	"bytes"
	"testing"

	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/evalchain/evalchain/core/types"
)

func TestHashConversionRoundTrip(t *testing.T) {
	h := types.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	g := ToGethHash(h)
	if !bytes.Equal(g[:], h[:]) {
		t.Errorf("ToGethHash changed bytes: %x vs %x", g, h)
	}
	if FromGethHash(g) != h {
		t.Errorf("round trip mismatch: %s", FromGethHash(g))
	}
}

func TestAddressConversionRoundTrip(t *testing.T) {
	a := types.HexToAddress("0x00112233445566778899aabbccddeeff00112233")
	g := ToGethAddress(a)
	if !bytes.Equal(g[:], a[:]) {
		t.Errorf("ToGethAddress changed bytes: %x vs %x", g, a)
	}
	if FromGethAddress(g) != a {
		t.Errorf("round trip mismatch: %s", FromGethAddress(g))
	}
	if FromGethAddress(gethcommon.Address{}) != (types.Address{}) {
		t.Error("zero address did not survive conversion")
	}
}

func TestWordFromUint64(t *testing.T) {
	w := wordFromUint64(0x0102)
	for i := 0; i < 30; i++ {
		if w[i] != 0 {
			t.Fatalf("byte %d = %x, want 0", i, w[i])
		}
	}
	if w[30] != 0x01 || w[31] != 0x02 {
		t.Errorf("low bytes = %x %x, want 01 02", w[30], w[31])
	}
}

func TestWordFromBool(t *testing.T) {
	if wordFromBool(false) != ([32]byte{}) {
		t.Error("false word is not zero")
	}
	w := wordFromBool(true)
	if w[31] != 1 {
		t.Errorf("true word last byte = %x, want 1", w[31])
	}
}

func TestWordFromAddress(t *testing.T) {
	a := types.HexToAddress("0xffeeddccbbaa99887766554433221100ffeeddcc")
	w := wordFromAddress(a)
	if !bytes.Equal(w[:12], make([]byte, 12)) {
		t.Errorf("padding bytes not zero: %x", w[:12])
	}
	if !bytes.Equal(w[12:], a[:]) {
		t.Errorf("address bytes = %x, want %x", w[12:], a[:])
	}
}
