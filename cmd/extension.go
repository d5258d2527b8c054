package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/yaman-yucel/lirashield/logger"
)

// Environment passed to extensions. They hold the effective values of the
// global flags, so that an extension opens the same database.
const (
	EnvDB      = "LIRASHIELD_DB"
	EnvVerbose = "LIRASHIELD_VERBOSE"
)

// ExtensionPrefix prefixes the name of external subcommands.
const ExtensionPrefix = "lirashield-"

// RunExtension attempts to find and execute an external lirashield-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := ExtensionPrefix + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		logger.L.Debug("no extension", "name", name, "error", err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	if cfg != nil {
		cmd.Env = append(cmd.Env, EnvDB+"="+cfg.DBPath)
	}
	cmd.Env = append(cmd.Env, EnvVerbose+"="+strconv.FormatBool(*Verbose))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
