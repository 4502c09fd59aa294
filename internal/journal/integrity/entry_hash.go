package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
)

type entryContent struct {
	RunID   string          `json:"run_id"`
	Type    journal.Type    `json:"type"`
	Era     int             `json:"era"`
	Payload json.RawMessage `json:"payload"`
}

type chainContent struct {
	RunID     string `json:"run_id"`
	Seq       uint64 `json:"seq"`
	EntryHash string `json:"entry_hash"`
	PrevHash  string `json:"prev_hash"`
}

// EntryHash hashes the content of one persisted entry. The sequence number is
// left out so identical differences hash alike; ChainHash binds position.
func EntryHash(runID string, env journal.Envelope) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	payload := env.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return ContentHash(entryContent{RunID: runID, Type: env.Type, Era: env.Era, Payload: payload})
}

// ChainHash links an entry to its predecessor's chain hash. prevHash is empty
// for the first entry of a run.
func ChainHash(runID string, seq uint64, entryHash, prevHash string) (string, error) {
	if strings.TrimSpace(entryHash) == "" {
		return "", fmt.Errorf("entry hash is required")
	}
	canonical, err := CanonicalJSON(chainContent{
		RunID:     strings.TrimSpace(runID),
		Seq:       seq,
		EntryHash: entryHash,
		PrevHash:  prevHash,
	})
	if err != nil {
		return "", fmt.Errorf("canonical chain: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
