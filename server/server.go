package server

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mynextid/zk-attest/challenge"
	"github.com/mynextid/zk-attest/keystore"
	"github.com/mynextid/zk-attest/schnorr"
	"github.com/mynextid/zk-attest/server/api"
	"golang.org/x/sync/errgroup"
)

type ServeConfig struct {
	// Server settings
	Host string
	Port int

	// Provider settings
	ProviderID    int
	SecretKey     string // decimal scalar, takes precedence over KeyFile
	KeyFile       string // CBOR key file written by keygen
	ChallengeHash string // "mimc" or "blake3"

	// Performance settings
	MaxRequestSize  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Security settings
	EnableCORS  bool
	CorsOrigins []string

	// Observability
	EnablePprof bool
	LogLevel    string
	LogFormat   string // "json" or "text"

	// TLS settings
	EnableTLS  bool
	CertFile   string
	TLSKeyFile string
}

func Run(cfg *ServeConfig) error {
	// Validate configuration
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup structured logging
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat)

	// The provider must be complete before any request is accepted
	provider, err := loadProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load provider: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, provider, logger)
}

// serve runs the HTTP server until ctx is done or the listener fails
func serve(ctx context.Context, cfg *ServeConfig, provider *api.Provider, logger Logger) error {
	r := setupRouter(api.NewServer(provider, logger), cfg, logger)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "addr", addr, "tls", cfg.EnableTLS, "provider_id", provider.ID())

		var err error
		if cfg.EnableTLS {
			err = httpServer.ListenAndServeTLS(cfg.CertFile, cfg.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server gracefully...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}

// loadProvider resolves the provider key: explicit secret key, then key
// file, else a fresh keypair for this process only
func loadProvider(cfg *ServeConfig, logger Logger) (*api.Provider, error) {
	hasher, err := challenge.ByName(cfg.ChallengeHash)
	if err != nil {
		return nil, err
	}
	engine := schnorr.NewEngine(schnorr.WithChallengeHasher(hasher))

	var (
		id = cfg.ProviderID
		sk *big.Int
	)

	switch {
	case cfg.SecretKey != "":
		if sk, err = schnorr.ParseScalar(cfg.SecretKey); err != nil {
			return nil, fmt.Errorf("invalid secret key: %w", err)
		}
	case cfg.KeyFile != "":
		kf, err := keystore.Load(cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		sk = kf.KeyPair.SecretKey
		if id == 0 {
			id = kf.ID
		}
	default:
		kp, err := engine.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		sk = kp.SecretKey
		logger.Warn("No provider key configured, generated an ephemeral keypair")
	}

	provider, err := api.NewProvider(id, sk, engine)
	if err != nil {
		return nil, err
	}

	pk := provider.PublicKey()
	x, y := schnorr.PointToDecimal(&pk)
	logger.Info("Provider ready", "provider_id", provider.ID(), "challenge_hash", cfg.ChallengeHash, "public_key_x", x, "public_key_y", y)

	return provider, nil
}

func validateServeConfig(cfg *ServeConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if cfg.ProviderID < 0 {
		return fmt.Errorf("invalid provider id: %d", cfg.ProviderID)
	}

	if _, err := challenge.ByName(cfg.ChallengeHash); err != nil {
		return err
	}

	if cfg.EnableTLS {
		if cfg.CertFile == "" || cfg.TLSKeyFile == "" {
			return fmt.Errorf("TLS enabled but cert-file or tls-key-file not provided")
		}
		if _, err := os.Stat(cfg.CertFile); err != nil {
			return fmt.Errorf("cert file not found: %s", cfg.CertFile)
		}
		if _, err := os.Stat(cfg.TLSKeyFile); err != nil {
			return fmt.Errorf("tls key file not found: %s", cfg.TLSKeyFile)
		}
	}

	if cfg.SecretKey == "" && cfg.KeyFile != "" {
		if _, err := os.Stat(cfg.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %s", cfg.KeyFile)
		}
	}

	return nil
}
