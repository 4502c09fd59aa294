package journal

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

// Envelope is the persisted form of an entry.
type Envelope struct {
	Seq     uint64          `json:"seq"`
	Type    Type            `json:"type"`
	Era     int             `json:"era"`
	Payload json.RawMessage `json:"payload"`
}

type decodeFunc func(json.RawMessage) (Difference, error)

func decodeAs[T Difference](raw json.RawMessage) (Difference, error) {
	var d T
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

var registry = map[Type]decodeFunc{
	TypeAddWord:         decodeAs[AddWord],
	TypeChangeStrength:  decodeAs[ChangeStrength],
	TypeChangeSound:     decodeAs[ChangeSound],
	TypeChangeMeaning:   decodeAs[ChangeMeaning],
	TypeBorrowWord:      decodeAs[BorrowWord],
	TypeAddCompoundWord: decodeAs[AddCompoundWord],
	TypeRemoveWord:      decodeAs[RemoveWord],
}

// Types lists every registered difference type.
func Types() []Type {
	return []Type{
		TypeAddWord,
		TypeChangeStrength,
		TypeChangeSound,
		TypeChangeMeaning,
		TypeBorrowWord,
		TypeAddCompoundWord,
		TypeRemoveWord,
	}
}

// Encode converts an entry into its envelope.
func Encode(entry Entry) (Envelope, error) {
	if entry.Difference == nil {
		return Envelope{}, fmt.Errorf("entry %d has no difference", entry.Seq)
	}
	payload, err := json.Marshal(entry.Difference)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", entry.Difference.Type(), err)
	}
	return Envelope{
		Seq:     entry.Seq,
		Type:    entry.Difference.Type(),
		Era:     entry.Era(),
		Payload: payload,
	}, nil
}

// Decode converts an envelope back into an entry.
func Decode(env Envelope) (Entry, error) {
	decode, ok := registry[env.Type]
	if !ok {
		return Entry{}, apperrors.WithMetadata(apperrors.CodeReplayUnknownType, "unknown difference type", map[string]string{"type": string(env.Type)})
	}
	d, err := decode(env.Payload)
	if err != nil {
		return Entry{}, fmt.Errorf("decode %s entry %d: %w", env.Type, env.Seq, err)
	}
	return Entry{Seq: env.Seq, Difference: d}, nil
}
