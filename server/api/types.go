package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mynextid/zk-attest/schnorr"
)

// ==== Request/Response Types ====

// AttestRequest represents an attestation signing request. Fields are
// pointers so that absent and null values can be told apart from zero.
type AttestRequest struct {
	CreditScore      *json.Number `json:"creditScore"`
	MonthlyIncome    *json.Number `json:"monthlyIncome"`
	MonthsAsCustomer *json.Number `json:"monthsAsCustomer"`
	UserPubKeyHash   *string      `json:"userPubKeyHash"`
}

// AttestResponse represents a signed attestation
type AttestResponse struct {
	Signature SignatureJSON `json:"signature"`
	Message   MessageJSON   `json:"message"`
}

// PointJSON is a curve point with decimal coordinates
type PointJSON struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// SignatureJSON is a Schnorr signature with decimal fields
type SignatureJSON struct {
	Announcement PointJSON `json:"announcement"`
	Response     string    `json:"response"`
}

// MessageJSON echoes the signed attestation fields as decimal strings
type MessageJSON struct {
	CreditScore      string `json:"creditScore"`
	MonthlyIncome    string `json:"monthlyIncome"`
	MonthsAsCustomer string `json:"monthsAsCustomer"`
	UserPubKeyHash   string `json:"userPubKeyHash"`
}

// ProviderInfoResponse describes the provider identity
type ProviderInfoResponse struct {
	ProviderID int       `json:"providerId"`
	PublicKey  PointJSON `json:"publicKey"`
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status     string `json:"status"`
	ProviderID int    `json:"providerId"`
}

// VerifyRequest represents a signature verification request. The provider
// public key is used when PublicKey is omitted.
type VerifyRequest struct {
	Signature *SignatureJSON `json:"signature"`
	Message   *MessageJSON   `json:"message"`
	PublicKey *PointJSON     `json:"publicKey,omitempty"`
}

// VerifyResponse represents a signature verification response
type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ==== Conversions ====

// missingFields lists the required attestation fields that are absent or null
func (r AttestRequest) missingFields() []string {
	var missing []string
	if r.CreditScore == nil {
		missing = append(missing, "creditScore")
	}
	if r.MonthlyIncome == nil {
		missing = append(missing, "monthlyIncome")
	}
	if r.MonthsAsCustomer == nil {
		missing = append(missing, "monthsAsCustomer")
	}
	if r.UserPubKeyHash == nil {
		missing = append(missing, "userPubKeyHash")
	}
	return missing
}

// attestation is a decoded AttestRequest
type attestation struct {
	creditScore      uint64
	monthlyIncome    uint64
	monthsAsCustomer uint64
	userPubKeyHash   *big.Int
}

func (r AttestRequest) decode() (*attestation, error) {
	var (
		a   attestation
		err error
	)
	if a.creditScore, err = parseUint("creditScore", *r.CreditScore); err != nil {
		return nil, err
	}
	if a.monthlyIncome, err = parseUint("monthlyIncome", *r.MonthlyIncome); err != nil {
		return nil, err
	}
	if a.monthsAsCustomer, err = parseUint("monthsAsCustomer", *r.MonthsAsCustomer); err != nil {
		return nil, err
	}
	if a.userPubKeyHash, err = schnorr.ParseScalar(*r.UserPubKeyHash); err != nil {
		return nil, fmt.Errorf("userPubKeyHash: %w", err)
	}
	return &a, nil
}

func (a *attestation) message() MessageJSON {
	return MessageJSON{
		CreditScore:      new(big.Int).SetUint64(a.creditScore).String(),
		MonthlyIncome:    new(big.Int).SetUint64(a.monthlyIncome).String(),
		MonthsAsCustomer: new(big.Int).SetUint64(a.monthsAsCustomer).String(),
		UserPubKeyHash:   a.userPubKeyHash.String(),
	}
}

// parseUint accepts JSON integers, including exponent forms like 7.2e2,
// as long as they denote a non-negative integer that fits 64 bits
func parseUint(field string, n json.Number) (uint64, error) {
	s := strings.TrimSpace(n.String())
	v, ok := new(big.Float).SetPrec(256).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%s: invalid number %q", field, s)
	}
	if v.Sign() < 0 {
		return 0, fmt.Errorf("%s: must be non-negative", field)
	}
	if !v.IsInt() {
		return 0, fmt.Errorf("%s: must be an integer", field)
	}
	i, _ := v.Int(nil)
	if !i.IsUint64() {
		return 0, fmt.Errorf("%s: value too large", field)
	}
	return i.Uint64(), nil
}

// decode turns wire fields back into a message. Every field must be a
// scalar so that one signature cannot be replayed over an aliased value.
func (m MessageJSON) decode() ([]*big.Int, error) {
	fields := []struct {
		name, value string
	}{
		{"creditScore", m.CreditScore},
		{"monthlyIncome", m.MonthlyIncome},
		{"monthsAsCustomer", m.MonthsAsCustomer},
		{"userPubKeyHash", m.UserPubKeyHash},
	}

	message := make([]*big.Int, 0, len(fields))
	for _, f := range fields {
		v, err := schnorr.ParseScalar(f.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		message = append(message, v)
	}
	return message, nil
}

func (s SignatureJSON) decode() (*schnorr.Signature, error) {
	r, err := schnorr.PointFromDecimal(s.Announcement.X, s.Announcement.Y)
	if err != nil {
		return nil, fmt.Errorf("announcement: %w", err)
	}
	resp, err := schnorr.ParseDecimal(s.Response)
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}
	return &schnorr.Signature{Announcement: r, Response: resp}, nil
}

func (p PointJSON) decode() (schnorr.Point, error) {
	return schnorr.PointFromDecimal(p.X, p.Y)
}

func pointJSON(p schnorr.Point) PointJSON {
	x, y := schnorr.PointToDecimal(&p)
	return PointJSON{X: x, Y: y}
}

// NewAttestResponse builds the wire form of a signed attestation
func NewAttestResponse(sig *schnorr.Signature, creditScore, monthlyIncome, monthsAsCustomer uint64, userPubKeyHash *big.Int) AttestResponse {
	a := attestation{
		creditScore:      creditScore,
		monthlyIncome:    monthlyIncome,
		monthsAsCustomer: monthsAsCustomer,
		userPubKeyHash:   userPubKeyHash,
	}
	return AttestResponse{
		Signature: signatureJSON(sig),
		Message:   a.message(),
	}
}

func signatureJSON(sig *schnorr.Signature) SignatureJSON {
	return SignatureJSON{
		Announcement: pointJSON(sig.Announcement),
		Response:     sig.Response.String(),
	}
}
