package attest

import (
	"encoding/json"
	"fmt"

	"github.com/mynextid/zk-attest/challenge"
	"github.com/mynextid/zk-attest/keystore"
	"github.com/mynextid/zk-attest/schnorr"
	"github.com/mynextid/zk-attest/server/api"
	"github.com/spf13/cobra"
)

type signConfig struct {
	keyFile          string
	challengeHash    string
	creditScore      uint64
	monthlyIncome    uint64
	monthsAsCustomer uint64
	userPubKeyHash   string
}

func NewSignCmd() *cobra.Command {
	cfg := &signConfig{}
	pe, envErr := loadProviderEnv()

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign an attestation offline",
		Long:  `Sign a credit attestation with a provider key file and print the same JSON the /attest endpoint returns.`,
		Example: `  zkattest sign -k provider.key --credit-score 720 --monthly-income 2500 \
    --months-as-customer 24 --user-pubkey-hash 12345678901234567890`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			return runSign(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.keyFile, "key-file", "k", pe.KeyFile, "Provider key file written by keygen")
	cmd.Flags().StringVar(&cfg.challengeHash, "challenge-hash", pe.ChallengeHash, "Challenge hash (mimc, blake3)")
	cmd.Flags().Uint64Var(&cfg.creditScore, "credit-score", 0, "Credit score")
	cmd.Flags().Uint64Var(&cfg.monthlyIncome, "monthly-income", 0, "Monthly income")
	cmd.Flags().Uint64Var(&cfg.monthsAsCustomer, "months-as-customer", 0, "Months as customer")
	cmd.Flags().StringVar(&cfg.userPubKeyHash, "user-pubkey-hash", "", "User public key hash as a decimal scalar below the Jubjub order")

	for _, name := range []string{"credit-score", "monthly-income", "months-as-customer", "user-pubkey-hash"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runSign(cmd *cobra.Command, cfg *signConfig) error {
	if cfg.keyFile == "" {
		return fmt.Errorf("a key file is required (--key-file or %sKEY_FILE)", EnvPrefix)
	}

	hasher, err := challenge.ByName(cfg.challengeHash)
	if err != nil {
		return err
	}

	userHash, err := schnorr.ParseScalar(cfg.userPubKeyHash)
	if err != nil {
		return fmt.Errorf("invalid user public key hash: %w", err)
	}

	kf, err := keystore.Load(cfg.keyFile)
	if err != nil {
		return err
	}

	provider, err := api.NewProvider(kf.ID, kf.KeyPair.SecretKey, schnorr.NewEngine(schnorr.WithChallengeHasher(hasher)))
	if err != nil {
		return err
	}

	sig, err := provider.Attest(cfg.creditScore, cfg.monthlyIncome, cfg.monthsAsCustomer, userHash)
	if err != nil {
		return fmt.Errorf("failed to sign attestation: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewAttestResponse(sig, cfg.creditScore, cfg.monthlyIncome, cfg.monthsAsCustomer, userHash))
}
