// Package replay implements the command that rebuilds a persisted run from
// its journal, optionally stopping at an earlier era, and exports it.
package replay

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/checkpoint"
	"github.com/yuuri3/TokiPonaLanguages/internal/evolution"
	"github.com/yuuri3/TokiPonaLanguages/internal/export"
	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/journal/integrity"
	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	platformcmd "github.com/yuuri3/TokiPonaLanguages/internal/platform/cmd"
	"github.com/yuuri3/TokiPonaLanguages/internal/replay"
	"github.com/yuuri3/TokiPonaLanguages/internal/storage/sqlite"
	"github.com/yuuri3/TokiPonaLanguages/internal/telemetry"
)

const dumpPageSize = 500

// Config holds replay command configuration.
type Config struct {
	DBPath     string `env:"TOKIPONA_DB_PATH"`
	RunID      string `env:"TOKIPONA_RUN_ID"`
	Era        int    `env:"TOKIPONA_REPLAY_ERA" envDefault:"-1"`
	OutputPath string `env:"TOKIPONA_OUTPUT_PATH" envDefault:"TokiPonaLanguages.csv"`
	DumpPath   string `env:"TOKIPONA_DUMP_PATH"`
	Verify     bool   `env:"TOKIPONA_REPLAY_VERIFY" envDefault:"true"`
	List       bool
}

// ParseConfig reads .env and the environment, then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database written by evolve -db")
	fs.StringVar(&cfg.RunID, "run", cfg.RunID, "run id to replay")
	fs.IntVar(&cfg.Era, "era", cfg.Era, "stop after this era (-1 = replay everything)")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "reflex table CSV to write")
	fs.StringVar(&cfg.DumpPath, "dump", cfg.DumpPath, "write the replayed journal as text to this path")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "check the hash chain and signatures before replaying")
	fs.BoolVar(&cfg.List, "list", cfg.List, "list stored runs")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the replay command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) (err error) {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("database path is required")
	}

	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return fmt.Errorf("load journal keyring: %w", err)
	}
	store, err := sqlite.Open(cfg.DBPath, keyring)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if cfg.List {
		return listRuns(ctx, store, out)
	}
	runID := strings.TrimSpace(cfg.RunID)
	if runID == "" {
		return errors.New("run id is required")
	}

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if cfg.Verify {
		if err := store.VerifyRun(ctx, runID); err != nil {
			return err
		}
	}

	codec := phonetics.NewCodec(run.Table)
	proto := lexicon.NewProto(codec, run.Proto)
	locations := evolution.Locations(run.Grid)

	// The rebuild always starts from the empty baseline, so a previous
	// replay's progress must not be resumed. Only full replays record their
	// progress in the database.
	var checkpoints replay.CheckpointStore = store
	options := replay.Options{}
	if cfg.Era >= 0 {
		options.EraBound = true
		options.UntilEra = cfg.Era
		checkpoints = checkpoint.NewNoop()
	} else if err := store.ResetCheckpoint(ctx, runID); err != nil {
		return err
	}
	res, err := replay.Replay(ctx, store, checkpoints, replay.LanguageApplier{Proto: proto}, runID,
		journal.NewLanguages(locations), options)
	if err != nil {
		return err
	}

	if cfg.OutputPath != "" {
		rows := export.Build(export.Input{
			Proto:     proto,
			Languages: res.State,
			Locations: locations,
			Codec:     codec,
		})
		if err := export.WriteFile(cfg.OutputPath, rows); err != nil {
			return err
		}
	}
	if cfg.DumpPath != "" {
		entries, err := listUntil(ctx, store, runID, res.LastSeq)
		if err != nil {
			return err
		}
		if err := writeDump(cfg.DumpPath, entries, codec); err != nil {
			return err
		}
	}

	if err := telemetry.NewEmitter(store).RunReplayed(ctx, runID, res.LastSeq, res.LastEra); err != nil {
		fmt.Fprintf(errOut, "record replay: %v\n", err)
	}
	fmt.Fprintf(out, "replayed %d entries of run %s through era %d\n", res.Applied, runID, res.LastEra)
	return nil
}

func listRuns(ctx context.Context, store *sqlite.Store, out io.Writer) error {
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s\t%s\tera=%d\tseed=%d\n", run.RunID, run.Status, run.Era, run.Seed)
	}
	return nil
}

func listUntil(ctx context.Context, store *sqlite.Store, runID string, lastSeq uint64) ([]journal.Entry, error) {
	var out []journal.Entry
	after := uint64(0)
	for after < lastSeq {
		page, err := store.ListEntries(ctx, runID, after, dumpPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, entry := range page {
			if entry.Seq > lastSeq {
				return out, nil
			}
			out = append(out, entry)
		}
		after = page[len(page)-1].Seq
	}
	return out, nil
}

func writeDump(path string, entries []journal.Entry, codec *phonetics.Codec) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	if err := journal.Dump(f, entries, codec); err != nil {
		f.Close()
		return fmt.Errorf("write dump: %w", err)
	}
	return f.Close()
}
