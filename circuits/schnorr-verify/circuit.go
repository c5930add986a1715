package csig

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	te "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/mynextid/zk-attest/schnorr"
)

// Field the circuit is compiled over: the BLS12-381 scalar field, which is
// the Jubjub base field
var Field = ecc.BLS12_381.ScalarField()

// Circuit checks an attestation signature the way the on-chain verifier
// does:
//   - c = MiMC(R.x, R.y, P.x, P.y, m[0..3]) mod 2^248
//   - generator * s == R + P * c
type Circuit struct {
	// Public input
	PublicKey twistededwards.Point                             `gnark:",public"`
	Message   [schnorr.AttestationMessageLen]frontend.Variable `gnark:",public"`

	// Signature
	Announcement twistededwards.Point `gnark:",public"`
	Response     frontend.Variable    `gnark:",public"`
}

func (c *Circuit) Define(api frontend.API) error {
	curve, err := twistededwards.NewEdCurve(api, te.BLS12_381)
	if err != nil {
		return fmt.Errorf("failed to init jubjub: %w", err)
	}

	curve.AssertIsOnCurve(c.PublicKey)
	curve.AssertIsOnCurve(c.Announcement)

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return fmt.Errorf("failed to init mimc: %w", err)
	}
	h.Write(c.Announcement.X, c.Announcement.Y, c.PublicKey.X, c.PublicKey.Y)
	h.Write(c.Message[:]...)
	digest := h.Sum()

	// truncate: keep the low ChallengeBits bits of the digest
	bits := api.ToBinary(digest, api.Compiler().FieldBitLen())
	challenge := api.FromBinary(bits[:schnorr.ChallengeBits]...)

	params := curve.Params()
	base := twistededwards.Point{X: params.Base[0], Y: params.Base[1]}

	lhs := curve.ScalarMul(base, c.Response)
	rhs := curve.Add(c.Announcement, curve.ScalarMul(c.PublicKey, challenge))

	api.AssertIsEqual(lhs.X, rhs.X)
	api.AssertIsEqual(lhs.Y, rhs.Y)

	return nil
}

// Assignment builds a full witness for a signature over message
func Assignment(pk schnorr.Point, message []*big.Int, sig *schnorr.Signature) (*Circuit, error) {
	if len(message) != schnorr.AttestationMessageLen {
		return nil, fmt.Errorf("message must have %d elements, got %d", schnorr.AttestationMessageLen, len(message))
	}

	px, py := schnorr.Coordinates(&pk)
	rx, ry := schnorr.Coordinates(&sig.Announcement)

	a := &Circuit{
		PublicKey:    twistededwards.Point{X: px, Y: py},
		Announcement: twistededwards.Point{X: rx, Y: ry},
		Response:     new(big.Int).Set(sig.Response),
	}
	for i, m := range message {
		a.Message[i] = new(big.Int).Set(m)
	}
	return a, nil
}
