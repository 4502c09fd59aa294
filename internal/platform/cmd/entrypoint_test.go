package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
	"time"
)

type testConfig struct {
	Input  string `env:"CMD_TEST_INPUT" envDefault:"proto.csv"`
	Output string `env:"CMD_TEST_OUTPUT" envDefault:"out.csv"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CMD_TEST_INPUT", "env.csv")
	t.Setenv("CMD_TEST_OUTPUT", "env-out.csv")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Input, "input", cfgRef.Input, "input")
	fs.StringVar(&cfgRef.Output, "output", cfgRef.Output, "output")

	if err := ParseArgs(fs, []string{"-input", "flag.csv"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Input != "flag.csv" {
		t.Fatalf("input = %q, want %q", cfgRef.Input, "flag.csv")
	}
	if cfgRef.Output != "env-out.csv" {
		t.Fatalf("output = %q, want %q", cfgRef.Output, "env-out.csv")
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CMD_TEST_INPUT", "configarg.csv")
	t.Setenv("CMD_TEST_OUTPUT", "configarg-out.csv")

	cfgRef := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfgRef.Input, "input", "", "input")
	if err := ParseConfigFromArgs(&cfgRef, fs, []string{"-input", "flag2.csv"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfgRef.Input != "flag2.csv" {
		t.Fatalf("input = %q, want %q", cfgRef.Input, "flag2.csv")
	}
	if cfgRef.Output != "configarg-out.csv" {
		t.Fatalf("output = %q, want %q", cfgRef.Output, "configarg-out.csv")
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil config target to be rejected")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceEvolve, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("TOKIPONA_OTEL_ENDPOINT", "")
	want := errors.New("boom")
	err := RunWithTelemetryAndOptions(context.Background(), ServiceReplay, RunOptions{
		ShutdownTimeout: time.Second,
		NoSignals:       true,
	}, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
