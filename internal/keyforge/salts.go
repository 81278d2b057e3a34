package keyforge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
	"github.com/i-wajidrashid/keyforge/internal/keyerr"
)

// vaultSalts is the JSON shape persisted to <vault>.salts (spec §6). The
// field names are a compatibility constant of the on-disk format.
type vaultSalts struct {
	SQLCipherSalt []byte `json:"sqlcipher_salt"`
	SecretSalt    []byte `json:"secret_salt"`
}

func generateSalts() (*vaultSalts, error) {
	store, err := cryptoutil.RandSalt()
	if err != nil {
		return nil, err
	}
	secret, err := cryptoutil.RandSalt()
	if err != nil {
		return nil, err
	}
	return &vaultSalts{SQLCipherSalt: store, SecretSalt: secret}, nil
}

func loadSalts(path string) (*vaultSalts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrNoVaultFound, err)
	}
	var s vaultSalts
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrSerialization, err)
	}
	return &s, nil
}

func saveSalts(path string, s *vaultSalts) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrSerialization, err)
	}
	return os.WriteFile(path, data, 0600)
}
