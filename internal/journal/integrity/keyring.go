package integrity

import (
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Keyring holds root HMAC keys and the id of the key used for signing.
type Keyring struct {
	keys        map[string][]byte
	activeKeyID string
}

// NewKeyring validates keys and the active key id.
func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("hmac keys are required")
	}
	activeKeyID = strings.TrimSpace(activeKeyID)
	if activeKeyID == "" {
		return nil, fmt.Errorf("active hmac key id is required")
	}
	if _, ok := keys[activeKeyID]; !ok {
		return nil, fmt.Errorf("active hmac key id %q is not configured", activeKeyID)
	}
	return &Keyring{keys: keys, activeKeyID: activeKeyID}, nil
}

// ActiveKeyID returns the signing key id, or "" for a nil keyring.
func (k *Keyring) ActiveKeyID() string {
	if k == nil {
		return ""
	}
	return k.activeKeyID
}

// Sign signs a chain hash for runID with the active key.
func (k *Keyring) Sign(runID, chainHash string) (signature, keyID string, err error) {
	if k == nil {
		return "", "", fmt.Errorf("hmac keyring is not configured")
	}
	key, err := runKey(k.keys[k.activeKeyID], runID)
	if err != nil {
		return "", "", err
	}
	return hmacHex(key, chainHash), k.activeKeyID, nil
}

// Verify checks a signature produced by Sign, using the key named by keyID.
func (k *Keyring) Verify(runID, chainHash, signature, keyID string) error {
	if k == nil {
		return fmt.Errorf("hmac keyring is not configured")
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return fmt.Errorf("signature key id is required")
	}
	root, ok := k.keys[keyID]
	if !ok {
		return fmt.Errorf("signature key id %q is unknown", keyID)
	}
	key, err := runKey(root, runID)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(hmacHex(key, chainHash)), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// runKey derives a per-run key so a signature cannot be moved between runs.
func runKey(root []byte, runID string) ([]byte, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	key, err := hkdf.Key(sha256.New, root, nil, "run:"+runID, 32)
	if err != nil {
		return nil, fmt.Errorf("derive run key: %w", err)
	}
	return key, nil
}

func hmacHex(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
