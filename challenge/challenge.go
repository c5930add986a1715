package challenge

import (
	"fmt"
	"math/big"
	"strings"
)

// Hasher computes the Schnorr challenge binding the announcement R, the
// public key P and the message. The on-chain verifier evaluates the same
// function, so any implementation used for signing must be bit-identical
// to the verifier's.
type Hasher interface {
	Challenge(rx, ry, px, py *big.Int, message []*big.Int) (*big.Int, error)
}

// HasherFunc adapts a plain function to the Hasher interface
type HasherFunc func(rx, ry, px, py *big.Int, message []*big.Int) (*big.Int, error)

func (f HasherFunc) Challenge(rx, ry, px, py *big.Int, message []*big.Int) (*big.Int, error) {
	return f(rx, ry, px, py, message)
}

const (
	NameMiMC   = "mimc"
	NameBlake3 = "blake3"
)

// Names lists the hashers selectable by name
var Names = []string{NameMiMC, NameBlake3}

// ByName returns the hasher registered under name
func ByName(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case NameMiMC, "":
		return MiMC{}, nil
	case NameBlake3:
		return Blake3{}, nil
	default:
		return nil, fmt.Errorf("unknown challenge hash %q (available: %s)", name, strings.Join(Names, ", "))
	}
}

// inputs flattens the challenge arguments in absorption order
func inputs(rx, ry, px, py *big.Int, message []*big.Int) []*big.Int {
	all := make([]*big.Int, 0, 4+len(message))
	all = append(all, rx, ry, px, py)
	return append(all, message...)
}
