package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/yuuri3/TokiPonaLanguages/internal/checkpoint"
	"github.com/yuuri3/TokiPonaLanguages/internal/evolution"
	"github.com/yuuri3/TokiPonaLanguages/internal/export"
	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
	"github.com/yuuri3/TokiPonaLanguages/internal/random"
	"github.com/yuuri3/TokiPonaLanguages/internal/replay"
	"github.com/yuuri3/TokiPonaLanguages/internal/tableio"
)

// Report is the outcome of one scenario.
type Report struct {
	Name     string
	Seed     int64
	Result   evolution.Result
	Replayed bool
	Failures []string
}

// Passed reports whether every expectation held.
func (r Report) Passed() bool {
	return len(r.Failures) == 0
}

func (r *Report) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run executes sc and checks its expectations. Setup problems such as
// unreadable inputs or invalid parameters are returned as errors; unmet
// expectations are listed in the report.
func Run(ctx context.Context, sc *Scenario, opts ...evolution.Option) (Report, error) {
	if sc == nil {
		return Report{}, errors.New("scenario is required")
	}
	report := Report{Name: sc.Name, Seed: sc.Seed}

	in, err := inputs(sc)
	if err != nil {
		return report, err
	}
	// A nil Environment would fall back to the process environment.
	overrides := sc.Params
	if overrides == nil {
		overrides = map[string]string{}
	}
	var params evolution.Params
	if err := env.ParseWithOptions(&params, env.Options{Environment: overrides}); err != nil {
		return report, apperrors.Wrap(apperrors.CodeParamInvalid, "scenario params", err)
	}
	rng, err := random.NewRand(sc.Seed)
	if err != nil {
		return report, err
	}
	runID := sc.Name
	if runID == "" {
		runID = "scenario"
	}
	opts = append([]evolution.Option{evolution.WithRunID(runID)}, opts...)
	sys, err := evolution.New(in, params, rng, opts...)
	if err != nil {
		return report, err
	}

	res, err := sys.RunBounded(ctx, sc.MaxEras)
	report.Result = res
	if err != nil && apperrors.CodeOf(err) != apperrors.CodeNotConverged {
		return report, err
	}

	check(&report, sc.Expect)
	if sc.Expect.Replay && res.Started {
		if err := checkReplay(ctx, &report, sys); err != nil {
			return report, err
		}
	}
	if err := write(sc, sys); err != nil {
		return report, err
	}
	return report, nil
}

func inputs(sc *Scenario) (evolution.Inputs, error) {
	in := evolution.Inputs{
		Proto:        sc.Proto,
		Table:        phonetics.Table(sc.Phonemes),
		Grid:         sc.Grid,
		SeedLocation: sc.SeedLocation,
	}
	var err error
	if len(in.Proto) == 0 {
		if in.Proto, err = tableio.ReadProto(sc.resolve(sc.ProtoFile)); err != nil {
			return in, err
		}
	}
	if len(in.Table) == 0 {
		if in.Table, err = tableio.ReadTable(sc.resolve(sc.PhonemesFile)); err != nil {
			return in, err
		}
	}
	if len(in.Grid) == 0 {
		if in.Grid, err = tableio.ReadGrid(sc.resolve(sc.GridFile)); err != nil {
			return in, err
		}
	}
	return in, nil
}

func check(report *Report, want Expectation) {
	res := report.Result
	if want.Started != nil && res.Started != *want.Started {
		report.failf("started = %v, want %v", res.Started, *want.Started)
	}
	if want.Converged != nil && res.Converged != *want.Converged {
		report.failf("converged = %v, want %v", res.Converged, *want.Converged)
	}
	if want.MaxEra > 0 && res.Era > want.MaxEra {
		report.failf("era = %d, want at most %d", res.Era, want.MaxEra)
	}
	if want.MinEntries > 0 && res.Entries < want.MinEntries {
		report.failf("entries = %d, want at least %d", res.Entries, want.MinEntries)
	}
}

func checkReplay(ctx context.Context, report *Report, sys *evolution.System) error {
	store := checkpoint.NewMemory()
	replayed, err := replay.Replay(ctx, sys.Journal(), store,
		replay.LanguageApplier{Proto: sys.Proto()}, sys.RunID(),
		journal.NewLanguages(sys.Locations()), replay.Options{})
	if err != nil {
		return err
	}
	if err := store.SaveState(ctx, sys.RunID(), replayed.LastSeq, replayed.LastEra, replayed.State); err != nil {
		return err
	}
	report.Replayed = true
	if !replayed.State.Equal(sys.Languages()) {
		report.failf("replayed state differs from live state after %d entries", replayed.Applied)
	}
	if replayed.LastEra != sys.Era() {
		report.failf("replayed era = %d, want %d", replayed.LastEra, sys.Era())
	}
	return nil
}

func write(sc *Scenario, sys *evolution.System) error {
	if path := sc.resolve(sc.Output); path != "" {
		rows := export.Build(export.Input{
			Proto:     sys.Proto(),
			Languages: sys.Languages(),
			Locations: sys.Locations(),
			Codec:     sys.Codec(),
		})
		if err := export.WriteFile(path, rows); err != nil {
			return err
		}
	}
	if path := sc.resolve(sc.Dump); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create dump: %w", err)
		}
		if err := journal.Dump(f, sys.Journal().Entries(), sys.Codec()); err != nil {
			f.Close()
			return fmt.Errorf("write dump: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close dump: %w", err)
		}
	}
	return nil
}
