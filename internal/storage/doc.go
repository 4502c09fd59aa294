// Package storage defines the persistence contracts for simulation runs.
//
// A run record holds everything needed to rebuild a run's starting point:
// its inputs, parameters and seed. The journal itself is stored as ordered
// entries and read back through replay.EntryStore. Operational telemetry is
// kept apart from the journal so it never influences replay.
//
// The SQLite implementation lives in the sqlite subpackage.
package storage
