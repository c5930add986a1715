// Package keystore persists a provider keypair as a CBOR key file
package keystore

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/mynextid/zk-attest/schnorr"
)

// Version of the key file format
const Version = 1

// KeyFile is the on-disk provider identity. Only the secret key is stored;
// the public key is derived on load.
type KeyFile struct {
	Version    uint      `cbor:"version"`
	ProviderID int       `cbor:"providerId"`
	SecretKey  []byte    `cbor:"secretKey"` // 32 bytes, big-endian
	CreatedAt  time.Time `cbor:"createdAt"`
}

// Provider is a loaded key file
type Provider struct {
	ID      int
	KeyPair schnorr.KeyPair
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("keystore: cbor encoder: %v", err))
	}
}

// Encode serializes a provider identity
func Encode(providerID int, secretKey *big.Int) ([]byte, error) {
	if err := checkSecretKey(secretKey); err != nil {
		return nil, err
	}

	return encMode.Marshal(KeyFile{
		Version:    Version,
		ProviderID: providerID,
		SecretKey:  secretKey.FillBytes(make([]byte, schnorr.ScalarBytes)),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	})
}

// Decode parses a key file and derives the public key
func Decode(data []byte) (*Provider, error) {
	var kf KeyFile
	if err := cbor.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to decode key file: %w", err)
	}
	if kf.Version != Version {
		return nil, fmt.Errorf("unsupported key file version %d", kf.Version)
	}
	if len(kf.SecretKey) != schnorr.ScalarBytes {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", schnorr.ScalarBytes, len(kf.SecretKey))
	}

	sk := new(big.Int).SetBytes(kf.SecretKey)
	if err := checkSecretKey(sk); err != nil {
		return nil, err
	}

	return &Provider{
		ID: kf.ProviderID,
		KeyPair: schnorr.KeyPair{
			SecretKey: sk,
			PublicKey: schnorr.DerivePublicKey(sk),
		},
	}, nil
}

// Save writes the key file, readable by the owner only
func Save(path string, providerID int, secretKey *big.Int, overwrite bool) error {
	data, err := Encode(providerID, secretKey)
	if err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()

	// the mode passed to OpenFile only applies to newly created files
	if err := f.Chmod(0600); err != nil {
		return fmt.Errorf("failed to restrict key file permissions: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return f.Sync()
}

// Load reads a key file from disk
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return Decode(data)
}

func checkSecretKey(sk *big.Int) error {
	if sk == nil || sk.Sign() <= 0 || sk.Cmp(schnorr.Order) >= 0 {
		return fmt.Errorf("secret key out of range")
	}
	return nil
}
