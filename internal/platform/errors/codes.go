package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeInputEmpty          Code = "INPUT_EMPTY"
	CodeInputUnreadable     Code = "INPUT_UNREADABLE"
	CodeSeedLocationUnknown Code = "SEED_LOCATION_UNKNOWN"
	CodeParamInvalid        Code = "PARAM_INVALID"

	// Evolution errors
	CodeNotConverged Code = "NOT_CONVERGED"

	// Replay errors
	CodeReplaySequenceGap     Code = "REPLAY_SEQUENCE_GAP"
	CodeReplayUnknownLocation Code = "REPLAY_UNKNOWN_LOCATION"
	CodeReplayUnknownWord     Code = "REPLAY_UNKNOWN_WORD"
	CodeReplayDuplicateWord   Code = "REPLAY_DUPLICATE_WORD"
	CodeReplayUnknownType     Code = "REPLAY_UNKNOWN_TYPE"

	// Storage errors
	CodeNotFound          Code = "NOT_FOUND"
	CodeIntegrityMismatch Code = "INTEGRITY_MISMATCH"
)

// Exit statuses reported by the command entry points.
const (
	ExitFailure      = 1
	ExitUsage        = 2
	ExitNotConverged = 3
	ExitCorrupt      = 4
)

// ExitCode maps domain codes to process exit statuses.
func (c Code) ExitCode() int {
	switch c {
	// Usage - the caller supplied bad input or parameters
	case CodeInputEmpty,
		CodeInputUnreadable,
		CodeSeedLocationUnknown,
		CodeParamInvalid:
		return ExitUsage

	// Liveness - the caller's bound was reached first
	case CodeNotConverged:
		return ExitNotConverged

	// Corruption - a persisted journal cannot be trusted
	case CodeReplaySequenceGap,
		CodeReplayUnknownLocation,
		CodeReplayUnknownWord,
		CodeReplayDuplicateWord,
		CodeReplayUnknownType,
		CodeIntegrityMismatch:
		return ExitCorrupt

	default:
		return ExitFailure
	}
}
