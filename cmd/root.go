package main

import (
	"github.com/mynextid/zk-attest/cmd/attest"
	"github.com/spf13/cobra"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "zkattest",
		Short:        "Schnorr attestation provider",
		Long:         `Sign credit attestations with Schnorr signatures over Jubjub for on-chain verification`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		attest.NewServeCmd(),
		attest.NewKeygenCmd(),
		attest.NewSignCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}
