// Package evolve implements the simulation command: read the CSV inputs, run
// the engine until every location speaks, then export the reflex table.
package evolve

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/yuuri3/TokiPonaLanguages/internal/evolution"
	"github.com/yuuri3/TokiPonaLanguages/internal/export"
	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/journal/integrity"
	platformcmd "github.com/yuuri3/TokiPonaLanguages/internal/platform/cmd"
	"github.com/yuuri3/TokiPonaLanguages/internal/platform/config"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
	"github.com/yuuri3/TokiPonaLanguages/internal/random"
	"github.com/yuuri3/TokiPonaLanguages/internal/storage"
	"github.com/yuuri3/TokiPonaLanguages/internal/storage/sqlite"
	"github.com/yuuri3/TokiPonaLanguages/internal/tableio"
	"github.com/yuuri3/TokiPonaLanguages/internal/telemetry"
)

// EnvPrefix namespaces every variable the command reads, including the keys
// of a parameter file.
const EnvPrefix = "TOKIPONA_"

// Config holds evolve command configuration.
type Config struct {
	ProtoPath    string `env:"TOKIPONA_PROTO_PATH"    envDefault:"OldTokiPona.csv"`
	PhonemesPath string `env:"TOKIPONA_PHONEMES_PATH" envDefault:"Phonetics.csv"`
	GridPath     string `env:"TOKIPONA_GRID_PATH"     envDefault:"Map.csv"`
	OutputPath   string `env:"TOKIPONA_OUTPUT_PATH"   envDefault:"TokiPonaLanguages.csv"`
	ParamsPath   string `env:"TOKIPONA_PARAMS_PATH"`
	DumpPath     string `env:"TOKIPONA_DUMP_PATH"`
	DBPath       string `env:"TOKIPONA_DB_PATH"`
	SeedLocation string `env:"TOKIPONA_SEED_LOCATION" envDefault:"0"`
	Seed         int64  `env:"TOKIPONA_SEED"`
	MaxEras      int    `env:"TOKIPONA_MAX_ERAS"`
	Verbose      bool   `env:"TOKIPONA_VERBOSE"`

	Params evolution.Params `envPrefix:"TOKIPONA_"`
}

// ParseConfig reads .env and the environment, then flags. A parameter file
// named by -params or TOKIPONA_PARAMS_PATH sits between the two: its values
// override the environment and flags override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	bindFlags(fs, &cfg)
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.ParamsPath == "" {
		return cfg, nil
	}

	overrides, err := tableio.ReadParams(cfg.ParamsPath, EnvPrefix)
	if err != nil {
		return Config{}, err
	}
	if err := config.ParseEnvWith(&cfg, overrides); err != nil {
		return Config{}, apperrors.Wrap(apperrors.CodeParamInvalid, "parameter file", err)
	}
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ProtoPath, "proto", cfg.ProtoPath, "proto lexicon CSV (first row)")
	fs.StringVar(&cfg.PhonemesPath, "phonemes", cfg.PhonemesPath, "phoneme table CSV")
	fs.StringVar(&cfg.GridPath, "grid", cfg.GridPath, "location grid CSV")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "reflex table CSV to write")
	fs.StringVar(&cfg.ParamsPath, "params", cfg.ParamsPath, "KEY,value parameter CSV")
	fs.StringVar(&cfg.DumpPath, "dump", cfg.DumpPath, "write the journal as text to this path")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "persist the run to this SQLite database")
	fs.StringVar(&cfg.SeedLocation, "seed-location", cfg.SeedLocation, "location that starts with the proto lexicon")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for reproducibility (0 = random)")
	fs.IntVar(&cfg.MaxEras, "max-eras", cfg.MaxEras, "give up after this many eras (0 = no limit)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose output")

	p := &cfg.Params
	fs.IntVar(&p.NBorrow, "n-borrow", p.NBorrow, "borrowing attempts per era")
	fs.Float64Var(&p.PSoundChange, "p-sound-change", p.PSoundChange, "per-language chance of a sound law each era")
	fs.Float64Var(&p.PSoundLoss, "p-sound-loss", p.PSoundLoss, "chance that a sound law deletes its phoneme")
	fs.Float64Var(&p.PSemanticShift, "p-semantic-shift", p.PSemanticShift, "per-language chance of a meaning shift each era")
	fs.Float64Var(&p.MaxSemanticShiftRate, "max-semantic-shift-rate", p.MaxSemanticShiftRate, "upper bound of a meaning shift's rate")
	fs.Float64Var(&p.PWordLoss, "p-word-loss", p.PWordLoss, "per-language chance of losing a synonym each era")
	fs.Float64Var(&p.PWordBirth, "p-word-birth", p.PWordBirth, "per-language chance of coining a compound each era")
	fs.Float64Var(&p.PStrengthDrift, "p-strength-drift", p.PStrengthDrift, "per-location chance of strength drift each era")
	fs.BoolVar(&p.ProhibitMinimalPair, "prohibit-minimal-pair", p.ProhibitMinimalPair, "revert sound changes that make two words homophones")
	fs.BoolVar(&p.ProhibitDuplication, "prohibit-duplication", p.ProhibitDuplication, "revert sound changes that leave an illegal word shape")
	fs.IntVar(&p.MaxConsonantManner, "max-consonant-manner", p.MaxConsonantManner, "last phoneme table row holding consonants")
}

// Run executes the evolve command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) (err error) {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	in, err := readInputs(cfg)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "seed: %d\n", seed)
	rng, err := random.NewRand(seed)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	opts := []evolution.Option{evolution.WithRunID(runID)}
	if cfg.Verbose {
		logger := log.New(errOut, "", 0)
		opts = append(opts, evolution.WithLogf(logger.Printf))
	}
	sys, err := evolution.New(in, cfg.Params, rng, opts...)
	if err != nil {
		return err
	}
	if !sys.Started() {
		fmt.Fprintln(out, "no output produced")
		return nil
	}

	var rec *recorder
	if cfg.DBPath != "" {
		if rec, err = openRecorder(ctx, cfg.DBPath); err != nil {
			return err
		}
		defer func() {
			if closeErr := rec.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		if err := rec.begin(ctx, sys, in, cfg.Params, seed); err != nil {
			return err
		}
	}

	res, runErr := sys.RunBounded(ctx, cfg.MaxEras)
	if rec != nil {
		if err := rec.finish(ctx, sys, res, runErr); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil && apperrors.CodeOf(runErr) != apperrors.CodeNotConverged {
		return runErr
	}

	if err := writeOutputs(cfg, sys); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		fmt.Fprintf(out, "run %s stopped at era %d after %d entries\n", runID, res.Era, res.Entries)
		return runErr
	}
	fmt.Fprintf(out, "run %s converged at era %d after %d entries\n", runID, res.Era, res.Entries)
	return nil
}

func readInputs(cfg Config) (evolution.Inputs, error) {
	proto, err := tableio.ReadProto(cfg.ProtoPath)
	if err != nil {
		return evolution.Inputs{}, err
	}
	table, err := tableio.ReadTable(cfg.PhonemesPath)
	if err != nil {
		return evolution.Inputs{}, err
	}
	grid, err := tableio.ReadGrid(cfg.GridPath)
	if err != nil {
		return evolution.Inputs{}, err
	}
	return evolution.Inputs{Proto: proto, Table: table, Grid: grid, SeedLocation: cfg.SeedLocation}, nil
}

func writeOutputs(cfg Config, sys *evolution.System) error {
	if cfg.OutputPath != "" {
		rows := export.Build(export.Input{
			Proto:     sys.Proto(),
			Languages: sys.Languages(),
			Locations: sys.Locations(),
			Codec:     sys.Codec(),
		})
		if err := export.WriteFile(cfg.OutputPath, rows); err != nil {
			return err
		}
	}
	if cfg.DumpPath != "" {
		if err := writeDump(cfg.DumpPath, sys.Journal().Entries(), sys); err != nil {
			return err
		}
	}
	return nil
}

func writeDump(path string, entries []journal.Entry, sys *evolution.System) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	if err := journal.Dump(f, entries, sys.Codec()); err != nil {
		f.Close()
		return fmt.Errorf("write dump: %w", err)
	}
	return f.Close()
}

// recorder persists a run and its journal to SQLite and reports lifecycle
// events to the same database.
type recorder struct {
	store   *sqlite.Store
	emitter *telemetry.Emitter
}

func openRecorder(ctx context.Context, path string) (*recorder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load journal keyring: %w", err)
	}
	store, err := sqlite.Open(path, keyring)
	if err != nil {
		return nil, err
	}
	return &recorder{store: store, emitter: telemetry.NewEmitter(store)}, nil
}

func (r *recorder) Close() error {
	return r.store.Close()
}

func (r *recorder) begin(ctx context.Context, sys *evolution.System, in evolution.Inputs, params evolution.Params, seed int64) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := r.store.CreateRun(ctx, storage.RunRecord{
		RunID:        sys.RunID(),
		Seed:         seed,
		Proto:        in.Proto,
		Table:        in.Table,
		Grid:         in.Grid,
		SeedLocation: in.SeedLocation,
		ParamsJSON:   paramsJSON,
		Status:       storage.RunStatusRunning,
	}); err != nil {
		return err
	}
	return r.emitter.RunStarted(ctx, sys.RunID(), seed)
}

// finish stores the journal and closes the run. It uses a fresh context when
// ctx was cancelled so an interrupted run is still recorded.
func (r *recorder) finish(ctx context.Context, sys *evolution.System, res evolution.Result, runErr error) error {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := r.store.AppendEntries(ctx, sys.RunID(), sys.Journal().Entries()); err != nil {
		return err
	}
	if runErr != nil {
		if err := r.store.FinishRun(ctx, sys.RunID(), storage.RunStatusAborted, res.Era); err != nil {
			return err
		}
		return r.emitter.RunAborted(ctx, sys.RunID(), res.Era, runErr)
	}
	if err := r.store.FinishRun(ctx, sys.RunID(), storage.RunStatusConverged, res.Era); err != nil {
		return err
	}
	return r.emitter.RunConverged(ctx, sys.RunID(), res.Era, res.Entries)
}
