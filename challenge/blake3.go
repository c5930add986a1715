package challenge

import (
	"fmt"
	"math/big"

	"github.com/zeebo/blake3"
)

// Blake3Context is the derive-key context separating challenge digests
// from any other blake3 use.
const Blake3Context = "zk-attest 2025 schnorr challenge v1"

// Blake3 is an off-chain challenge hash. It has no circuit counterpart, so
// signatures made with it only verify against Verify in this module.
type Blake3 struct{}

func (Blake3) Challenge(rx, ry, px, py *big.Int, message []*big.Int) (*big.Int, error) {
	h := blake3.NewDeriveKey(Blake3Context)

	buf := make([]byte, 32)
	for i, v := range inputs(rx, ry, px, py, message) {
		if v == nil {
			return nil, fmt.Errorf("blake3: input %d is nil", i)
		}
		if v.Sign() < 0 || v.BitLen() > 256 {
			return nil, fmt.Errorf("blake3: input %d out of range", i)
		}
		v.FillBytes(buf)
		_, _ = h.Write(buf)
	}

	return new(big.Int).SetBytes(h.Sum(nil)), nil
}
