package evolve

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yuuri3/TokiPonaLanguages/internal/evolution"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
	"github.com/yuuri3/TokiPonaLanguages/internal/storage"
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

func testConfig(t *testing.T, grid string) Config {
	t.Helper()
	t.Setenv("TOKIPONA_JOURNAL_HMAC_KEY", "")
	t.Setenv("TOKIPONA_JOURNAL_HMAC_KEYS", "")
	dir := t.TempDir()
	return Config{
		ProtoPath:    writeFile(t, dir, "OldTokiPona.csv", "toki,pona,jan,ma\n"),
		PhonemesPath: writeFile(t, dir, "Phonetics.csv", "p,t,k\nm,n,\n,s,\nw,l,j\ni,,u\ne,,o\n,a,\n"),
		GridPath:     writeFile(t, dir, "Map.csv", grid),
		OutputPath:   filepath.Join(dir, "TokiPonaLanguages.csv"),
		SeedLocation: "0",
		Seed:         5,
		Params:       evolution.DefaultParams(),
	}
}

func TestParseConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := ParseConfig(flag.NewFlagSet("evolve", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ProtoPath != "OldTokiPona.csv" || cfg.PhonemesPath != "Phonetics.csv" || cfg.GridPath != "Map.csv" {
		t.Fatalf("paths = %q, %q, %q", cfg.ProtoPath, cfg.PhonemesPath, cfg.GridPath)
	}
	if cfg.OutputPath != "TokiPonaLanguages.csv" || cfg.SeedLocation != "0" {
		t.Fatalf("output, seed location = %q, %q", cfg.OutputPath, cfg.SeedLocation)
	}
	if cfg.Params != evolution.DefaultParams() {
		t.Fatalf("params = %+v, want defaults", cfg.Params)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKIPONA_N_BORROW", "7")
	t.Setenv("TOKIPONA_P_WORD_LOSS", "0.2")
	cfg, err := ParseConfig(flag.NewFlagSet("evolve", flag.ContinueOnError), []string{"-n-borrow", "9", "-max-eras", "30", "-v"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Params.NBorrow != 9 {
		t.Fatalf("n borrow = %d, want 9", cfg.Params.NBorrow)
	}
	if cfg.Params.PWordLoss != 0.2 {
		t.Fatalf("p word loss = %v, want 0.2", cfg.Params.PWordLoss)
	}
	if cfg.MaxEras != 30 || !cfg.Verbose {
		t.Fatalf("max eras, verbose = %d, %v", cfg.MaxEras, cfg.Verbose)
	}
}

func TestParseConfigFilterFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	args := []string{"-prohibit-minimal-pair=false", "-prohibit-duplication=false", "-max-consonant-manner", "2"}
	cfg, err := ParseConfig(flag.NewFlagSet("evolve", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Params.ProhibitMinimalPair || cfg.Params.ProhibitDuplication {
		t.Fatalf("filters = %v, %v, want both off", cfg.Params.ProhibitMinimalPair, cfg.Params.ProhibitDuplication)
	}
	if cfg.Params.MaxConsonantManner != 2 {
		t.Fatalf("max consonant manner = %d, want 2", cfg.Params.MaxConsonantManner)
	}
}

func TestParseConfigParamsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TOKIPONA_P_SOUND_CHANGE", "0.9")
	writeFile(t, dir, "params.csv", "N_BOLLOW,2\nP_SOUND_CHANGE,0.3\nP_REMOVE_SOUND,0.6\nOLD_TOKI_PONA,custom.csv\n# comment,x\n")
	args := []string{"-params", "params.csv", "-p-sound-loss", "0.4"}
	cfg, err := ParseConfig(flag.NewFlagSet("evolve", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Params.NBorrow != 2 {
		t.Fatalf("n borrow = %d, want 2", cfg.Params.NBorrow)
	}
	if cfg.Params.PSoundChange != 0.3 {
		t.Fatalf("p sound change = %v, want 0.3 from the file", cfg.Params.PSoundChange)
	}
	if cfg.Params.PSoundLoss != 0.4 {
		t.Fatalf("p sound loss = %v, want 0.4 from the flag", cfg.Params.PSoundLoss)
	}
	if cfg.ProtoPath != "custom.csv" {
		t.Fatalf("proto path = %q, want custom.csv", cfg.ProtoPath)
	}
}

func TestParseConfigBadParamsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "params.csv", "N_BORROW,many\n")
	_, err := ParseConfig(flag.NewFlagSet("evolve", flag.ContinueOnError), []string{"-params", "params.csv"})
	if got := apperrors.CodeOf(err); got != apperrors.CodeParamInvalid {
		t.Fatalf("code = %v, want %v", got, apperrors.CodeParamInvalid)
	}
}

func TestRunWritesReflexTable(t *testing.T) {
	cfg := testConfig(t, "0,1\n2,3\n")
	cfg.DumpPath = filepath.Join(filepath.Dir(cfg.OutputPath), "journal.txt")
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "seed: 5\n") || !strings.Contains(out.String(), "converged at era") {
		t.Fatalf("output = %q", out.String())
	}
	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if lines[0] != ",0,1,2,3" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Toki Pona,") {
		t.Fatalf("autonym row = %q", lines[1])
	}
	if info, err := os.Stat(cfg.DumpPath); err != nil || info.Size() == 0 {
		t.Fatalf("dump missing: %v", err)
	}
}

func TestRunWithoutInputsProducesNothing(t *testing.T) {
	cfg := testConfig(t, "0,1\n")
	cfg.ProtoPath = ""
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "no output produced") {
		t.Fatalf("output = %q", out.String())
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("output file should not exist: %v", err)
	}
}

func TestRunMissingInputFile(t *testing.T) {
	cfg := testConfig(t, "0,1\n")
	cfg.GridPath = filepath.Join(t.TempDir(), "absent.csv")
	err := Run(context.Background(), cfg, nil, nil)
	if got := apperrors.CodeOf(err); got != apperrors.CodeInputUnreadable {
		t.Fatalf("code = %v, want %v", got, apperrors.CodeInputUnreadable)
	}
}

func TestRunVerboseLogsProgress(t *testing.T) {
	cfg := testConfig(t, "0,1\n")
	cfg.Verbose = true
	var errOut bytes.Buffer
	if err := Run(context.Background(), cfg, nil, &errOut); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(errOut.String(), "era 0:") {
		t.Fatalf("log = %q", errOut.String())
	}
}

func TestRunPersistsJournal(t *testing.T) {
	cfg := testConfig(t, "0,1,2\n")
	cfg.DBPath = filepath.Join(t.TempDir(), "runs.db")
	if err := Run(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	store, err := sqlite.Open(cfg.DBPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.Status != storage.RunStatusConverged || run.Seed != 5 {
		t.Fatalf("run = %+v", run)
	}
	if err := store.VerifyRun(ctx, run.RunID); err != nil {
		t.Fatalf("VerifyRun: %v", err)
	}
	events, err := store.ListTelemetryEvents(ctx, run.RunID)
	if err != nil {
		t.Fatalf("ListTelemetryEvents: %v", err)
	}
	if len(events) != 2 || events[0].EventName != "run.started" || events[1].EventName != "run.converged" {
		t.Fatalf("events = %+v", events)
	}
}

func TestRunNotConverged(t *testing.T) {
	cfg := testConfig(t, "0,\n,1\n")
	cfg.MaxEras = 3
	cfg.DBPath = filepath.Join(t.TempDir(), "runs.db")
	var out bytes.Buffer
	err := Run(context.Background(), cfg, &out, nil)
	if got := apperrors.CodeOf(err); got != apperrors.CodeNotConverged {
		t.Fatalf("code = %v, want %v", got, apperrors.CodeNotConverged)
	}
	if got := apperrors.CodeOf(err).ExitCode(); got != apperrors.ExitNotConverged {
		t.Fatalf("exit code = %d, want %d", got, apperrors.ExitNotConverged)
	}
	if _, err := os.Stat(cfg.OutputPath); err != nil {
		t.Fatalf("partial output missing: %v", err)
	}
	if !strings.Contains(out.String(), "stopped at era 3") {
		t.Fatalf("output = %q", out.String())
	}

	store, err := sqlite.Open(cfg.DBPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != storage.RunStatusAborted {
		t.Fatalf("runs = %+v", runs)
	}
}
