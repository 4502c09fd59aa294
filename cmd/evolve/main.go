// Package main runs a language evolution simulation from CSV inputs.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	evolvecmd "github.com/yuuri3/TokiPonaLanguages/internal/cmd/evolve"
	platformcmd "github.com/yuuri3/TokiPonaLanguages/internal/platform/cmd"
	"github.com/yuuri3/TokiPonaLanguages/internal/platform/config"
)

func main() {
	cfg, err := evolvecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitErr(err)
	}
	log.SetPrefix("[EVOLVE] ")

	err = platformcmd.RunWithTelemetry(context.Background(), platformcmd.ServiceEvolve, func(ctx context.Context) error {
		return evolvecmd.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.ExitErr(err)
	}
}
