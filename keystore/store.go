// Package keystore implements §4.D's key manager: per-DID key storage
// backed by a single JSON file, written atomically.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sagecrypto "github.com/tap-x-project/tap/crypto"
)

// entry is one key's on-disk representation: {key_type, label?, jwk}.
type entry struct {
	KeyType sagecrypto.KeyType `json:"key_type"`
	Label   string             `json:"label,omitempty"`
	JWK     json.RawMessage    `json:"jwk"`
}

// file is the root keystore document: {"keys": {did: entry}}.
type file struct {
	Keys map[string]entry `json:"keys"`
}

// DefaultPath returns "<home>/.tap/keys.json", the default keystore
// location referenced by §4.D and §6.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("keystore: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".tap", "keys.json"), nil
}

// loadFile reads the keystore file at path. A missing file is not an
// error: it is treated as an empty keystore so a fresh install can start
// from nothing.
func loadFile(path string) (*file, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &file{Keys: make(map[string]entry)}, nil
		}
		return nil, fmt.Errorf("keystore: reading %s: %w", path, err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("keystore: parsing %s: %w", path, err)
	}
	if f.Keys == nil {
		f.Keys = make(map[string]entry)
	}
	return &f, nil
}

// saveFile writes f to path atomically: a temp file in the same
// directory, fsynced, then renamed over the destination.
func saveFile(path string, f *file) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("keystore: creating %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("keystore: marshaling keystore: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keys-*.json.tmp")
	if err != nil {
		return fmt.Errorf("keystore: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("keystore: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("keystore: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("keystore: closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("keystore: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("keystore: renaming into place: %w", err)
	}
	return nil
}
