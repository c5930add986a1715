package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mynextid/zk-attest/schnorr"
)

// Logger is the subset of the server logger the handlers use
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Server handles HTTP requests for attestation signing
type Server struct {
	provider *Provider
	logger   Logger
}

// NewServer creates a new HTTP server. A nil logger discards output.
func NewServer(provider *Provider, logger Logger) *Server {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Server{
		provider: provider,
		logger:   logger,
	}
}

// ==== Handlers ====

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		ProviderID: s.provider.ID(),
	})
}

// HandleProviderInfo returns the provider id and public key
func (s *Server) HandleProviderInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ProviderInfoResponse{
		ProviderID: s.provider.ID(),
		PublicKey:  pointJSON(s.provider.PublicKey()),
	})
}

// HandleAttest signs a credit attestation with the provider key
func (s *Server) HandleAttest(w http.ResponseWriter, r *http.Request) {
	var req AttestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Validate inputs
	if missing := req.missingFields(); len(missing) > 0 {
		respondError(w, http.StatusBadRequest, "missing_fields",
			fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	att, err := req.decode()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_field", err.Error())
		return
	}

	msg := att.message()
	s.logger.Debug("signing attestation",
		"provider_id", s.provider.ID(),
		"credit_score", msg.CreditScore,
		"monthly_income", msg.MonthlyIncome,
		"months_as_customer", msg.MonthsAsCustomer,
		"request_id", middleware.GetReqID(r.Context()),
	)

	sig, err := s.provider.Attest(att.creditScore, att.monthlyIncome, att.monthsAsCustomer, att.userPubKeyHash)
	if err != nil {
		s.logger.Error("attestation signing failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		respondError(w, http.StatusInternalServerError, "signing_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, NewAttestResponse(sig, att.creditScore, att.monthlyIncome, att.monthsAsCustomer, att.userPubKeyHash))
}

// HandleVerify checks a signature over an attestation message
func (s *Server) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Validate inputs
	if req.Signature == nil || req.Message == nil {
		respondError(w, http.StatusBadRequest, "missing_fields",
			"Missing required fields: signature and message are required")
		return
	}

	sig, err := req.Signature.decode()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_signature_encoding", err.Error())
		return
	}

	message, err := req.Message.decode()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_field", err.Error())
		return
	}

	pk := s.provider.PublicKey()
	if req.PublicKey != nil {
		if pk, err = req.PublicKey.decode(); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_public_key", err.Error())
			return
		}
	}

	err = s.provider.Verify(pk, message, sig)
	if err != nil && !errors.Is(err, schnorr.ErrInvalidSignature) {
		respondError(w, http.StatusInternalServerError, "verification_failed", err.Error())
		return
	}

	response := VerifyResponse{
		Valid:     err == nil,
		Timestamp: time.Now(),
	}
	if err != nil {
		response.Message = fmt.Sprintf("verification failed: %v", err)
	} else {
		response.Message = "signature is valid"
	}

	respondJSON(w, http.StatusOK, response)
}

// ==== Helper Functions ====

// decodeBody parses the JSON request body into v, writing a 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request",
			"failed to read request body")
		return false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json",
			fmt.Sprintf("failed to parse request: %v", err))
		return false
	}
	return true
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	})
}
