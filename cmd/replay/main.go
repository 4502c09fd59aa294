// Package main rebuilds a persisted run from its journal.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	replaycmd "github.com/yuuri3/TokiPonaLanguages/internal/cmd/replay"
	platformcmd "github.com/yuuri3/TokiPonaLanguages/internal/platform/cmd"
	"github.com/yuuri3/TokiPonaLanguages/internal/platform/config"
)

func main() {
	cfg, err := replaycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitErr(err)
	}
	log.SetPrefix("[REPLAY] ")

	err = platformcmd.RunWithTelemetry(context.Background(), platformcmd.ServiceReplay, func(ctx context.Context) error {
		return replaycmd.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.ExitErr(err)
	}
}
