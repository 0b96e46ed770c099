package cmd

import (
	"errors"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// RunExtension attempts to find and execute an external pricer-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// The resolved settings are passed to the extension as PRICER_* environment
// variables, so that it works on the same ledger and quotes.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "pricer-" + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debug().Err(err).Str("extension", name).Msg("external command not found in PATH")
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, EnvLedgerFile+"="+settings.LedgerFile)
	cmd.Env = append(cmd.Env, EnvQuotesFile+"="+settings.QuotesFile)
	cmd.Env = append(cmd.Env, EnvLogLevel+"="+settings.LogLevel)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, exitErr.ExitCode()
		}
		log.Error().Err(err).Str("extension", name).Msg("cannot execute external command")
		return true, 1
	}
	return true, 0
}
