// Package schnorr implements Schnorr signatures over Jubjub with a
// challenge truncated to ChallengeBits, matching an on-chain verifier that
// checks
//
//	generator * s == R + P * (H(R, P, m) mod 2^248)
package schnorr

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/mynextid/zk-attest/challenge"
)

// AttestationMessageLen is the number of scalars in an attestation message
const AttestationMessageLen = 4

var ErrInvalidSignature = errors.New("invalid signature")

// KeyPair is a provider identity
type KeyPair struct {
	SecretKey *big.Int
	PublicKey Point
}

// Signature is a Schnorr signature (R, s)
type Signature struct {
	Announcement Point
	Response     *big.Int
}

// Engine signs and verifies messages. It is safe for concurrent use as
// long as its randomness source is.
type Engine struct {
	rand io.Reader
	hash challenge.Hasher
}

type Option func(*Engine)

// WithRandomness replaces crypto/rand as the source for keys and nonces
func WithRandomness(r io.Reader) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithChallengeHasher replaces the default MiMC challenge hash
func WithChallengeHasher(h challenge.Hasher) Option {
	return func(e *Engine) {
		e.hash = h
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rand: rand.Reader,
		hash: challenge.MiMC{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AttestationMessage builds [creditScore, monthlyIncome, monthsAsCustomer, userPubKeyHash]
func AttestationMessage(creditScore, monthlyIncome, monthsAsCustomer uint64, userPubKeyHash *big.Int) []*big.Int {
	return []*big.Int{
		new(big.Int).SetUint64(creditScore),
		new(big.Int).SetUint64(monthlyIncome),
		new(big.Int).SetUint64(monthsAsCustomer),
		new(big.Int).Set(userPubKeyHash),
	}
}

// Challenge returns the truncated challenge for announcement r, public key
// pk and message
func (e *Engine) Challenge(r, pk *Point, message []*big.Int) (*big.Int, error) {
	rx, ry := Coordinates(r)
	px, py := Coordinates(pk)

	h, err := e.hash.Challenge(rx, ry, px, py, message)
	if err != nil {
		return nil, fmt.Errorf("challenge hash failed: %w", err)
	}
	if h == nil || h.Sign() < 0 {
		return nil, fmt.Errorf("challenge hash returned an invalid value")
	}
	return TruncateChallenge(h), nil
}

// Sign signs message with secretKey. Every call draws a fresh nonce, so
// signing the same message twice yields unrelated signatures.
func (e *Engine) Sign(secretKey *big.Int, message []*big.Int) (*Signature, error) {
	pk := DerivePublicKey(secretKey)

	k, err := e.SampleScalar()
	if err != nil {
		return nil, fmt.Errorf("failed to sample nonce: %w", err)
	}
	r := scalarMulBase(k)

	c, err := e.Challenge(&r, &pk, message)
	if err != nil {
		return nil, err
	}

	// s = k + c*sk mod order; truncation happened before the multiplication
	kNat := new(saferith.Nat).SetBig(k, ScalarBytes*8)
	cNat := new(saferith.Nat).SetBig(c, ChallengeBits)
	skNat := new(saferith.Nat).SetBig(new(big.Int).Mod(secretKey, Order), ScalarBytes*8)

	s := new(saferith.Nat).ModMul(cNat, skNat, orderModulus)
	s.ModAdd(s, kNat, orderModulus)

	return &Signature{
		Announcement: r,
		Response:     s.Big(),
	}, nil
}

// SignAttestation signs the four-field credit attestation message
func (e *Engine) SignAttestation(secretKey *big.Int, creditScore, monthlyIncome, monthsAsCustomer uint64, userPubKeyHash *big.Int) (*Signature, error) {
	if userPubKeyHash == nil || userPubKeyHash.Sign() < 0 {
		return nil, fmt.Errorf("user public key hash must be a non-negative integer")
	}
	return e.Sign(secretKey, AttestationMessage(creditScore, monthlyIncome, monthsAsCustomer, userPubKeyHash))
}

// Verify checks generator*s == R + pk*c. It returns nil for a valid
// signature and an error wrapping ErrInvalidSignature otherwise.
func (e *Engine) Verify(pk Point, message []*big.Int, sig *Signature) error {
	if sig == nil || sig.Response == nil {
		return fmt.Errorf("%w: missing response", ErrInvalidSignature)
	}
	if sig.Response.Sign() < 0 || sig.Response.Cmp(Order) >= 0 {
		return fmt.Errorf("%w: response out of range", ErrInvalidSignature)
	}
	if !sig.Announcement.IsOnCurve() {
		return fmt.Errorf("%w: announcement not on curve", ErrInvalidSignature)
	}
	if !pk.IsOnCurve() {
		return fmt.Errorf("%w: public key not on curve", ErrInvalidSignature)
	}

	c, err := e.Challenge(&sig.Announcement, &pk, message)
	if err != nil {
		return err
	}

	lhs := scalarMulBase(sig.Response)
	cp := scalarMul(&pk, c)
	var rhs Point
	rhs.Add(&sig.Announcement, &cp)

	if !lhs.Equal(&rhs) {
		return ErrInvalidSignature
	}
	return nil
}
