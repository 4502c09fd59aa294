// Package main provides a CLI for running Lua scenario scripts.
package main

import (
	"context"
	"flag"
	"os"

	scenariocmd "github.com/yuuri3/TokiPonaLanguages/internal/cmd/scenario"
	platformcmd "github.com/yuuri3/TokiPonaLanguages/internal/platform/cmd"
	"github.com/yuuri3/TokiPonaLanguages/internal/platform/config"
)

func main() {
	cfg, err := scenariocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	err = platformcmd.RunWithTelemetry(context.Background(), platformcmd.ServiceScenario, func(ctx context.Context) error {
		return scenariocmd.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.ExitErr(err)
	}
}
