package schnorr

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
	"github.com/cronokirby/saferith"
)

// Point is an affine point on Jubjub
type Point = twistededwards.PointAffine

// ChallengeBits is the width the verifier truncates the challenge hash to.
// The verifying circuit can only handle values below 2^248.
const ChallengeBits = 248

var (
	curve = twistededwards.GetEdwardsCurve()

	// Order is the order of the Jubjub prime-order subgroup
	Order = new(big.Int).Set(&curve.Order)

	orderModulus = saferith.ModulusFromBytes(Order.Bytes())

	challengeMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), ChallengeBits), big.NewInt(1))
)

// Generator returns a copy of the Jubjub base point
func Generator() Point {
	var g Point
	g.Set(&curve.Base)
	return g
}

// DerivePublicKey returns generator * secretKey. The caller is expected to
// pass a scalar already reduced mod Order.
func DerivePublicKey(secretKey *big.Int) Point {
	return scalarMulBase(secretKey)
}

func scalarMulBase(k *big.Int) Point {
	var p Point
	p.ScalarMultiplication(&curve.Base, k)
	return p
}

func scalarMul(p *Point, k *big.Int) Point {
	var res Point
	res.ScalarMultiplication(p, k)
	return res
}

// TruncateChallenge reduces a challenge hash mod 2^ChallengeBits
func TruncateChallenge(h *big.Int) *big.Int {
	return new(big.Int).And(h, challengeMask)
}

// Coordinates returns the point coordinates as integers
func Coordinates(p *Point) (x, y *big.Int) {
	x = p.X.BigInt(new(big.Int))
	y = p.Y.BigInt(new(big.Int))
	return x, y
}
