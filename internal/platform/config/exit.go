package config

import (
	"fmt"
	"os"

	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// ExitErr writes err to stderr and exits with the status mapped from its
// domain code, so scripts can tell bad input from non-convergence.
func ExitErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(apperrors.CodeOf(err).ExitCode())
}
