package replay

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yuuri3/TokiPonaLanguages/internal/cmd/evolve"
	"github.com/yuuri3/TokiPonaLanguages/internal/evolution"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
	"github.com/yuuri3/TokiPonaLanguages/internal/replay"
	"github.com/yuuri3/TokiPonaLanguages/internal/storage/sqlite"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// recordRun runs evolve into a fresh database and returns its path, the run
// id and the reflex table evolve wrote.
func recordRun(t *testing.T) (dbPath, runID, table string) {
	t.Helper()
	t.Setenv("TOKIPONA_JOURNAL_HMAC_KEY", "")
	t.Setenv("TOKIPONA_JOURNAL_HMAC_KEYS", "")
	dir := t.TempDir()
	params := evolution.DefaultParams()
	params.PSoundChange = 0.3
	params.PWordBirth = 0.2
	cfg := evolve.Config{
		ProtoPath:    writeFile(t, dir, "OldTokiPona.csv", "toki,pona,jan,ma,telo\n"),
		PhonemesPath: writeFile(t, dir, "Phonetics.csv", "p,t,k\nm,n,\n,s,\nw,l,j\ni,,u\ne,,o\n,a,\n"),
		GridPath:     writeFile(t, dir, "Map.csv", "0,1,2\n3,,4\n"),
		OutputPath:   filepath.Join(dir, "live.csv"),
		DBPath:       filepath.Join(dir, "runs.db"),
		SeedLocation: "0",
		Seed:         11,
		Params:       params,
	}
	if err := evolve.Run(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("evolve: %v", err)
	}

	store, err := sqlite.Open(cfg.DBPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	runs, err := store.ListRuns(context.Background())
	store.Close()
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, %v", runs, err)
	}
	live, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read live table: %v", err)
	}
	return cfg.DBPath, runs[0].RunID, string(live)
}

func TestParseConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKIPONA_DB_PATH", "runs.db")
	cfg, err := ParseConfig(flag.NewFlagSet("replay", flag.ContinueOnError), []string{"-run", "abc", "-era", "4"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "runs.db" || cfg.RunID != "abc" || cfg.Era != 4 || !cfg.Verify {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestParseConfigDefaultEra(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := ParseConfig(flag.NewFlagSet("replay", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Era != -1 {
		t.Fatalf("era = %d, want -1", cfg.Era)
	}
}

func TestRunRequiresDatabaseAndRun(t *testing.T) {
	if err := Run(context.Background(), Config{}, nil, nil); err == nil {
		t.Fatal("expected missing database error")
	}
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	if err := Run(context.Background(), Config{DBPath: dbPath}, nil, nil); err == nil {
		t.Fatal("expected missing run id error")
	}
	err := Run(context.Background(), Config{DBPath: dbPath, RunID: "absent"}, nil, nil)
	if got := apperrors.CodeOf(err); got != apperrors.CodeNotFound {
		t.Fatalf("code = %v, want %v", got, apperrors.CodeNotFound)
	}
}

func TestRunReproducesLiveTable(t *testing.T) {
	dbPath, runID, live := recordRun(t)
	dir := t.TempDir()
	cfg := Config{
		DBPath:     dbPath,
		RunID:      runID,
		Era:        -1,
		OutputPath: filepath.Join(dir, "replayed.csv"),
		DumpPath:   filepath.Join(dir, "journal.txt"),
		Verify:     true,
	}
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	replayed, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read replayed table: %v", err)
	}
	if string(replayed) != live {
		t.Fatalf("replayed table differs:\n%s\nwant:\n%s", replayed, live)
	}
	if info, err := os.Stat(cfg.DumpPath); err != nil || info.Size() == 0 {
		t.Fatalf("dump missing: %v", err)
	}
	if !strings.Contains(out.String(), "of run "+runID) {
		t.Fatalf("output = %q", out.String())
	}

	// Replaying twice must not resume from the first replay's checkpoint.
	if err := Run(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	again, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read second table: %v", err)
	}
	if string(again) != live {
		t.Fatal("second replay differs from the live table")
	}

	store, err := sqlite.Open(dbPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	cp, err := store.Get(context.Background(), runID)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if cp.LastSeq == 0 {
		t.Fatal("full replay should record its progress")
	}
}

func TestRunStopsAtEra(t *testing.T) {
	dbPath, runID, _ := recordRun(t)
	var out bytes.Buffer
	cfg := Config{DBPath: dbPath, RunID: runID, Era: 0, OutputPath: filepath.Join(t.TempDir(), "era0.csv")}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "through era 0") {
		t.Fatalf("output = %q", out.String())
	}

	store, err := sqlite.Open(dbPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	events, err := store.ListTelemetryEvents(context.Background(), runID)
	if err != nil {
		t.Fatalf("ListTelemetryEvents: %v", err)
	}
	if last := events[len(events)-1]; last.EventName != "run.replayed" {
		t.Fatalf("last event = %q, want run.replayed", last.EventName)
	}
	if _, err := store.Get(context.Background(), runID); !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("checkpoint err = %v, want not found after a bounded replay", err)
	}
}

func TestRunListsRuns(t *testing.T) {
	dbPath, runID, _ := recordRun(t)
	var out bytes.Buffer
	if err := Run(context.Background(), Config{DBPath: dbPath, List: true}, &out, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out.String(), runID+"\tconverged\t") {
		t.Fatalf("output = %q", out.String())
	}
}
