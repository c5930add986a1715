package attest

import (
	"time"

	"github.com/mynextid/zk-attest/server"
	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	cfg := &server.ServeConfig{}
	pe, envErr := loadProviderEnv()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the attestation API server",
		Long: `Start the HTTP API server that signs credit attestations with the provider key.

The provider key is taken from --secret-key, then --key-file; without either a
fresh keypair is generated for the lifetime of the process. Provider settings
can also be set through ZKATTEST_PROVIDER_ID, ZKATTEST_SECRET_KEY,
ZKATTEST_KEY_FILE and ZKATTEST_CHALLENGE_HASH.`,
		Example: `  # Start server on default port with an ephemeral key
  zkattest serve

  # Serve a persisted provider identity
  zkattest keygen -o provider.key --provider-id 1
  zkattest serve --host 0.0.0.0 --port 9090 --key-file provider.key

  # Production deployment with TLS
  zkattest serve --host 0.0.0.0 --port 443 --enable-tls \
    --cert-file /etc/ssl/cert.pem --tls-key-file /etc/ssl/key.pem`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			return server.Run(cfg)
		},
	}

	// Server flags
	cmd.Flags().StringVar(&cfg.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", 8080, "Port to listen on")

	// Provider flags
	cmd.Flags().IntVar(&cfg.ProviderID, "provider-id", pe.ProviderID, "Provider identifier (0 = take it from the key file)")
	cmd.Flags().StringVar(&cfg.SecretKey, "secret-key", pe.SecretKey, "Provider secret key as a decimal scalar")
	cmd.Flags().StringVarP(&cfg.KeyFile, "key-file", "k", pe.KeyFile, "Provider key file written by keygen")
	cmd.Flags().StringVar(&cfg.ChallengeHash, "challenge-hash", pe.ChallengeHash, "Challenge hash (mimc, blake3)")

	// Performance flags
	cmd.Flags().Int64Var(&cfg.MaxRequestSize, "max-request-size", 64*1024, "Maximum request body size in bytes")
	cmd.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", 15*time.Second, "HTTP read timeout")
	cmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", 15*time.Second, "HTTP write timeout")
	cmd.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", 120*time.Second, "HTTP idle timeout")
	cmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	// Security flags
	cmd.Flags().BoolVar(&cfg.EnableCORS, "enable-cors", true, "Enable CORS middleware")
	cmd.Flags().StringSliceVar(&cfg.CorsOrigins, "cors-origins", []string{"*"}, "Allowed CORS origins")

	// Observability flags
	cmd.Flags().BoolVar(&cfg.EnablePprof, "enable-pprof", false, "Enable pprof endpoints (debug only)")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text, json)")

	// TLS flags
	cmd.Flags().BoolVar(&cfg.EnableTLS, "enable-tls", false, "Enable TLS/HTTPS")
	cmd.Flags().StringVar(&cfg.CertFile, "cert-file", "", "TLS certificate file")
	cmd.Flags().StringVar(&cfg.TLSKeyFile, "tls-key-file", "", "TLS private key file")

	return cmd
}
