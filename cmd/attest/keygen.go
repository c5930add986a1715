package attest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mynextid/zk-attest/keystore"
	"github.com/mynextid/zk-attest/schnorr"
	"github.com/spf13/cobra"
)

type keygenConfig struct {
	output     string
	providerID int
	force      bool
}

func NewKeygenCmd() *cobra.Command {
	cfg := &keygenConfig{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a provider keypair",
		Long:  `Generate a Jubjub keypair for an attestation provider and store it in a CBOR key file readable only by its owner.`,
		Example: `  # Create a key for provider 1
  zkattest keygen -o provider.key --provider-id 1

  # Replace an existing key
  zkattest keygen -o provider.key --provider-id 1 --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.output, "output", "o", "provider.key", "Output key file")
	cmd.Flags().IntVar(&cfg.providerID, "provider-id", 0, "Provider identifier stored in the key file")
	cmd.Flags().BoolVarP(&cfg.force, "force", "f", false, "Overwrite an existing key file")

	return cmd
}

func runKeygen(cmd *cobra.Command, cfg *keygenConfig) error {
	if cfg.providerID < 0 {
		return fmt.Errorf("invalid provider id: %d", cfg.providerID)
	}

	if dir := filepath.Dir(cfg.output); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	kp, err := schnorr.NewEngine().GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate keypair: %w", err)
	}

	if err := keystore.Save(cfg.output, cfg.providerID, kp.SecretKey, cfg.force); err != nil {
		return err
	}

	x, y := schnorr.PointToDecimal(&kp.PublicKey)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[OK] Wrote provider %d key to %s\n", cfg.providerID, cfg.output)
	fmt.Fprintf(out, "  public key x: %s\n", x)
	fmt.Fprintf(out, "  public key y: %s\n", y)
	return nil
}
