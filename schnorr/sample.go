package schnorr

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
)

// ScalarBytes is the number of random bytes drawn per sampled scalar
const ScalarBytes = 32

// maxKeyAttempts bounds the resampling of a zero secret key
const maxKeyAttempts = 16

var ErrRandomness = errors.New("randomness source failed")

// SampleScalar draws ScalarBytes bytes, reads them as a big-endian integer
// and reduces mod Order. The reduction of a 256-bit value over a ~252-bit
// order leaves a small bias and the arithmetic is not constant time; fine
// for attestation demos, not for high-value production keys.
func (e *Engine) SampleScalar() (*big.Int, error) {
	buf := make([]byte, ScalarBytes)
	if _, err := io.ReadFull(e.rand, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomness, err)
	}

	n := new(saferith.Nat).SetBytes(buf)
	n.Mod(n, orderModulus)
	return n.Big(), nil
}

// GenerateKeyPair samples a non-zero secret key and derives its public key
func (e *Engine) GenerateKeyPair() (KeyPair, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		sk, err := e.SampleScalar()
		if err != nil {
			return KeyPair{}, err
		}
		if sk.Sign() == 0 {
			continue
		}
		return KeyPair{SecretKey: sk, PublicKey: DerivePublicKey(sk)}, nil
	}
	return KeyPair{}, fmt.Errorf("%w: sampled zero secret key %d times", ErrRandomness, maxKeyAttempts)
}
