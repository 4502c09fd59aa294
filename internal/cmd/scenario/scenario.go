package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/yuuri3/TokiPonaLanguages/internal/evolution"
	platformcmd "github.com/yuuri3/TokiPonaLanguages/internal/platform/cmd"
	"github.com/yuuri3/TokiPonaLanguages/internal/scenario"
)

// AssertionMode controls how unmet expectations are reported.
type AssertionMode int

const (
	// AssertionStrict fails the command on the first unmet expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs unmet expectations and keeps going.
	AssertionLogOnly
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string `env:"TOKIPONA_SCENARIO_FILE"`
	Dir        string `env:"TOKIPONA_SCENARIO_DIR"`
	Assertions bool   `env:"TOKIPONA_SCENARIO_ASSERT" envDefault:"true"`
	Verbose    bool   `env:"TOKIPONA_SCENARIO_VERBOSE"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "run every .lua file in this directory")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	paths, err := scenarioPaths(cfg)
	if err != nil {
		return err
	}

	mode := AssertionStrict
	if !cfg.Assertions {
		mode = AssertionLogOnly
	}
	logger := log.New(errOut, "", 0)

	failed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		sc, err := scenario.LoadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		var opts []evolution.Option
		if cfg.Verbose {
			prefix := sc.Name + ": "
			opts = append(opts, evolution.WithLogf(func(format string, args ...any) {
				logger.Printf(prefix+format, args...)
			}))
		}
		report, err := scenario.Run(ctx, sc, opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		if report.Passed() {
			fmt.Fprintf(out, "ok   %s (era %d, %d entries)\n", report.Name, report.Result.Era, report.Result.Entries)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL %s\n", report.Name)
		for _, failure := range report.Failures {
			logger.Printf("%s: %s", report.Name, failure)
		}
		if mode == AssertionStrict {
			return fmt.Errorf("scenario %s failed", report.Name)
		}
	}
	if failed > 0 {
		logger.Printf("%d of %d scenarios failed", failed, len(paths))
	}
	return nil
}

func scenarioPaths(cfg Config) ([]string, error) {
	if cfg.Scenario != "" {
		return []string{cfg.Scenario}, nil
	}
	if cfg.Dir == "" {
		return nil, errors.New("scenario path is required")
	}
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		paths = append(paths, filepath.Join(cfg.Dir, entry.Name()))
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", cfg.Dir)
	}
	return paths, nil
}
