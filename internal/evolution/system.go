// Package evolution runs the era loop that spreads a proto-language across a
// grid of locations, mutating each local lexicon and journaling every change.
package evolution

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
	"github.com/yuuri3/TokiPonaLanguages/internal/random"
)

// DefaultSeedLocation is the grid cell that receives the proto-language.
const DefaultSeedLocation = "0"

var tracer = otel.Tracer("github.com/yuuri3/TokiPonaLanguages/internal/evolution")

// Inputs are the parsed tables a run starts from.
type Inputs struct {
	Proto        []string
	Table        phonetics.Table
	Grid         [][]string
	SeedLocation string
}

// Option configures a System.
type Option func(*System)

// WithRunID sets the journal's run id. A random UUID is used otherwise.
func WithRunID(runID string) Option {
	return func(s *System) {
		s.runID = runID
	}
}

// WithLogf sets a printf-style sink for per-era progress lines.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *System) {
		s.logf = logf
	}
}

// Result summarises a finished or interrupted run.
type Result struct {
	Started   bool
	Converged bool
	Era       int
	Entries   int
}

// System is the whole simulation state.
type System struct {
	era        int
	grid       [][]string
	table      phonetics.Table
	codec      *phonetics.Codec
	classifier phonetics.Classifier
	locations  []string
	adjacency  []Edge
	languages  journal.Languages
	proto      *lexicon.Language
	journal    *journal.Journal

	params  Params
	rng     random.Source
	runID   string
	logf    func(format string, args ...any)
	started bool
}

// New builds a System and seeds the proto-language at the seed location.
// Empty inputs, an empty proto lexicon or a zero borrow count produce a
// System that never starts; Run on it returns immediately.
func New(in Inputs, params Params, rng random.Source, opts ...Option) (*System, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, apperrors.New(apperrors.CodeParamInvalid, "random source is required")
	}

	codec := phonetics.NewCodec(in.Table)
	locations := Locations(in.Grid)
	s := &System{
		grid:       in.Grid,
		table:      in.Table,
		codec:      codec,
		classifier: params.classifier(),
		locations:  locations,
		adjacency:  Adjacencies(in.Grid),
		languages:  journal.NewLanguages(locations),
		proto:      lexicon.NewProto(codec, in.Proto),
		params:     params,
		rng:        rng,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	s.journal = journal.New(s.runID)

	if in.Table.Empty() || len(locations) == 0 || s.proto.Empty() || params.NBorrow == 0 {
		return s, nil
	}

	seed := in.SeedLocation
	if seed == "" {
		seed = DefaultSeedLocation
	}
	if _, ok := s.languages[seed]; !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeSeedLocationUnknown,
			fmt.Sprintf("seed location %q is not on the map", seed),
			map[string]string{"location": seed})
	}
	if err := s.record(journal.ChangeStrength{Location: seed, Strength: s.proto.Strength}); err != nil {
		return nil, err
	}
	for _, w := range s.proto.Words() {
		if err := s.record(journal.AddWord{Location: seed, Word: w}); err != nil {
			return nil, err
		}
	}
	s.started = true
	return s, nil
}

// Started reports whether the run was seeded.
func (s *System) Started() bool { return s.started }

// Era returns the current era.
func (s *System) Era() int { return s.era }

// RunID returns the journal's run id.
func (s *System) RunID() string { return s.runID }

// Grid returns the location grid the run was built from.
func (s *System) Grid() [][]string { return s.grid }

// Table returns the phoneme table.
func (s *System) Table() phonetics.Table { return s.table }

// Codec returns the codec built over Table.
func (s *System) Codec() *phonetics.Codec { return s.codec }

// Locations returns a copy of the location ids in grid reading order.
func (s *System) Locations() []string { return append([]string(nil), s.locations...) }

// Adjacency returns a copy of the neighbour pairs borrowing draws from.
func (s *System) Adjacency() []Edge { return append([]Edge(nil), s.adjacency...) }

// Proto returns the proto-language. It is never modified.
func (s *System) Proto() *lexicon.Language { return s.proto }

// Journal returns the run's journal.
func (s *System) Journal() *journal.Journal { return s.journal }

// Languages returns the live per-location lexicons. Callers must not modify
// them.
func (s *System) Languages() journal.Languages { return s.languages }

// Covered reports whether every location holds at least one word.
func (s *System) Covered() bool {
	for _, loc := range s.locations {
		if s.languages[loc].Empty() {
			return false
		}
	}
	return true
}

// record applies d to the live state and appends it to the journal, stamped
// with the current era.
func (s *System) record(d journal.Difference) error {
	d = stamp(d, s.era)
	if err := journal.Apply(s.languages, s.proto, d); err != nil {
		return fmt.Errorf("record %s: %w", d.Type(), err)
	}
	s.journal.Append(d)
	return nil
}

func stamp(d journal.Difference, era int) journal.Difference {
	meta := journal.Meta{Era: era}
	switch d := d.(type) {
	case journal.AddWord:
		d.Meta = meta
		return d
	case journal.ChangeStrength:
		d.Meta = meta
		return d
	case journal.ChangeSound:
		d.Meta = meta
		return d
	case journal.ChangeMeaning:
		d.Meta = meta
		return d
	case journal.BorrowWord:
		d.Meta = meta
		return d
	case journal.AddCompoundWord:
		d.Meta = meta
		return d
	case journal.RemoveWord:
		d.Meta = meta
		return d
	}
	return d
}

// Step runs one era: strength drift, borrowing, sound change, word loss,
// word birth and semantic shift, in that order. It reports whether every
// location is covered afterwards; otherwise the era counter advances.
func (s *System) Step(ctx context.Context) (covered bool, err error) {
	if !s.started {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, span := tracer.Start(ctx, "evolution.Step")
	era := s.era
	before := s.journal.Len()
	defer func() {
		span.SetAttributes(
			attribute.String("run.id", s.runID),
			attribute.Int("evolution.era", era),
			attribute.Int("evolution.entries", s.journal.Len()-before),
			attribute.Bool("evolution.covered", covered),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "step failed")
		}
		span.End()
	}()

	for _, op := range []func() error{
		s.driftStrength,
		s.borrow,
		s.changeSounds,
		s.loseWords,
		s.birthWords,
		s.shiftMeanings,
	} {
		if err := op(); err != nil {
			return false, err
		}
	}

	covered = s.Covered()
	if s.logf != nil {
		s.logf("era %d: %d entries, %d/%d locations populated", era, s.journal.Len()-before, s.populated(), len(s.locations))
	}
	if !covered {
		s.era++
	}
	return covered, nil
}

func (s *System) populated() int {
	n := 0
	for _, loc := range s.locations {
		if !s.languages[loc].Empty() {
			n++
		}
	}
	return n
}

// Run steps until every location is covered or ctx is done.
func (s *System) Run(ctx context.Context) (Result, error) {
	return s.RunBounded(ctx, 0)
}

// RunBounded is Run with an upper bound on the number of eras. A
// non-positive maxEras means no bound. Exceeding the bound returns a
// not-converged error alongside the partial result.
func (s *System) RunBounded(ctx context.Context, maxEras int) (Result, error) {
	if !s.started {
		return Result{}, nil
	}
	for steps := 0; ; steps++ {
		if maxEras > 0 && steps >= maxEras {
			return s.result(false), apperrors.WithMetadata(apperrors.CodeNotConverged,
				fmt.Sprintf("not converged after %d eras", maxEras),
				map[string]string{"run_id": s.runID})
		}
		covered, err := s.Step(ctx)
		if err != nil {
			return s.result(false), err
		}
		if covered {
			return s.result(true), nil
		}
	}
}

func (s *System) result(converged bool) Result {
	return Result{Started: s.started, Converged: converged, Era: s.era, Entries: s.journal.Len()}
}
