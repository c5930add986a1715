package attest

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by the CLI
const EnvPrefix = "ZKATTEST_"

// providerEnv holds provider settings that may come from the environment.
// Values found there become the defaults of the matching flags.
type providerEnv struct {
	ProviderID    int    `env:"PROVIDER_ID" envDefault:"0"`
	SecretKey     string `env:"SECRET_KEY"`
	KeyFile       string `env:"KEY_FILE"`
	ChallengeHash string `env:"CHALLENGE_HASH" envDefault:"mimc"`
}

func loadProviderEnv() (providerEnv, error) {
	var pe providerEnv
	if err := env.ParseWithOptions(&pe, env.Options{Prefix: EnvPrefix}); err != nil {
		return pe, fmt.Errorf("failed to read environment: %w", err)
	}
	return pe, nil
}
