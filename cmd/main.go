package main

import (
	"fmt"
	"os"
)

// zkattest - Schnorr attestation signing service over Jubjub
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
