package api

import (
	"fmt"
	"math/big"

	"github.com/mynextid/zk-attest/schnorr"
)

// Provider is the attestation-issuing identity served by the API. It is
// built once before the router exists and is read-only afterwards.
type Provider struct {
	id      int
	keyPair schnorr.KeyPair
	engine  *schnorr.Engine
}

// NewProvider derives the public key for secretKey and binds it to engine
func NewProvider(id int, secretKey *big.Int, engine *schnorr.Engine) (*Provider, error) {
	if id < 0 {
		return nil, fmt.Errorf("invalid provider id: %d", id)
	}
	if secretKey == nil || secretKey.Sign() <= 0 || secretKey.Cmp(schnorr.Order) >= 0 {
		return nil, fmt.Errorf("provider secret key out of range")
	}
	if engine == nil {
		engine = schnorr.NewEngine()
	}

	sk := new(big.Int).Set(secretKey)
	return &Provider{
		id: id,
		keyPair: schnorr.KeyPair{
			SecretKey: sk,
			PublicKey: schnorr.DerivePublicKey(sk),
		},
		engine: engine,
	}, nil
}

// ID returns the provider identifier
func (p *Provider) ID() int {
	return p.id
}

// PublicKey returns the provider public key
func (p *Provider) PublicKey() schnorr.Point {
	return p.keyPair.PublicKey
}

// Attest signs an attestation with the provider key
func (p *Provider) Attest(creditScore, monthlyIncome, monthsAsCustomer uint64, userPubKeyHash *big.Int) (*schnorr.Signature, error) {
	return p.engine.SignAttestation(p.keyPair.SecretKey, creditScore, monthlyIncome, monthsAsCustomer, userPubKeyHash)
}

// Verify checks a signature against pk
func (p *Provider) Verify(pk schnorr.Point, message []*big.Int, sig *schnorr.Signature) error {
	return p.engine.Verify(pk, message, sig)
}
