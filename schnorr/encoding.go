package schnorr

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Scalars and coordinates travel as base-10 strings: they exceed the
// integer range JSON numbers can carry without loss.

// ParseDecimal parses a non-negative base-10 integer
func ParseDecimal(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty decimal string")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal string %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %q", s)
	}
	return n, nil
}

// ParseScalar parses a decimal scalar and checks it is below Order
func ParseScalar(s string) (*big.Int, error) {
	n, err := ParseDecimal(s)
	if err != nil {
		return nil, err
	}
	if n.Cmp(Order) >= 0 {
		return nil, fmt.Errorf("scalar is not below the Jubjub order")
	}
	return n, nil
}

// PointFromDecimal builds a point from decimal coordinates and checks it is
// on the curve
func PointFromDecimal(x, y string) (Point, error) {
	var p Point
	xi, err := parseCoordinate(x)
	if err != nil {
		return p, fmt.Errorf("x: %w", err)
	}
	yi, err := parseCoordinate(y)
	if err != nil {
		return p, fmt.Errorf("y: %w", err)
	}
	p.X.SetBigInt(xi)
	p.Y.SetBigInt(yi)
	if !p.IsOnCurve() {
		return p, fmt.Errorf("point is not on the Jubjub curve")
	}
	return p, nil
}

func parseCoordinate(s string) (*big.Int, error) {
	n, err := ParseDecimal(s)
	if err != nil {
		return nil, err
	}
	if n.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("coordinate is not a field element")
	}
	return n, nil
}

// PointToDecimal returns the decimal encoding of the point coordinates.
// fr.Element.String prints elements close to the modulus as negative
// numbers, so the canonical integers are formatted instead.
func PointToDecimal(p *Point) (x, y string) {
	xi, yi := Coordinates(p)
	return xi.String(), yi.String()
}
