package challenge

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
)

// MiMC hashes the challenge inputs with MiMC over the BLS12-381 scalar
// field, which is also the base field of Jubjub. Each input is reduced into
// the field and absorbed as one block. The in-circuit counterpart is
// gnark's std/hash/mimc compiled over the same field.
type MiMC struct{}

func (MiMC) Challenge(rx, ry, px, py *big.Int, message []*big.Int) (*big.Int, error) {
	h := mimc.NewMiMC()

	for i, v := range inputs(rx, ry, px, py, message) {
		if v == nil {
			return nil, fmt.Errorf("mimc: input %d is nil", i)
		}
		if v.Sign() < 0 {
			return nil, fmt.Errorf("mimc: input %d is negative", i)
		}

		var e fr.Element
		e.SetBigInt(v)
		block := e.Bytes()
		if _, err := h.Write(block[:]); err != nil {
			return nil, fmt.Errorf("mimc: failed to absorb input %d: %w", i, err)
		}
	}

	return new(big.Int).SetBytes(h.Sum(nil)), nil
}
