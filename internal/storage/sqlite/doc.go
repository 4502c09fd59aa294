// Package sqlite persists runs, their journals, replay checkpoints and
// operational telemetry in a single SQLite database.
//
// Journal entries are hash chained per run and, when a keyring is
// configured, each chain hash is signed. VerifyRun walks a run's chain and
// reports the first entry that does not match.
package sqlite
