package integrity

import (
	"fmt"
	"os"
	"strings"
)

const (
	envHMACKeys  = "TOKIPONA_JOURNAL_HMAC_KEYS"
	envHMACKey   = "TOKIPONA_JOURNAL_HMAC_KEY"
	envHMACKeyID = "TOKIPONA_JOURNAL_HMAC_KEY_ID"
	defaultKeyID = "v1"
)

// KeyringFromEnv loads signing keys from the environment. Either a single key
// (TOKIPONA_JOURNAL_HMAC_KEY) or a list of id=key pairs
// (TOKIPONA_JOURNAL_HMAC_KEYS) may be set; TOKIPONA_JOURNAL_HMAC_KEY_ID picks
// the active one and defaults to "v1". With neither set, signing is disabled
// and the keyring is nil.
func KeyringFromEnv() (*Keyring, error) {
	keyID := strings.TrimSpace(os.Getenv(envHMACKeyID))
	if keyID == "" {
		keyID = defaultKeyID
	}

	keySpec := strings.TrimSpace(os.Getenv(envHMACKeys))
	if keySpec == "" {
		raw := strings.TrimSpace(os.Getenv(envHMACKey))
		if raw == "" {
			return nil, nil
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(keySpec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id, value = strings.TrimSpace(id), strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid %s entry %q", envHMACKeys, entry)
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
