// Command lpm is the Linux package manager's command-line entry point:
// it wires internal/lifecycle, internal/catalog, internal/config, and
// internal/module behind install/update/delete/module/repository verbs.
package main

import (
	"os"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/termui"
)

// engineVersion is this build's own version, checked against a
// package's system.json min_supported_lpm_version requirement.
const engineVersion = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		termui.New(os.Stdout, os.Stderr).Errorf("%v", err)
		os.Exit(lpmerr.ExitCode)
	}
}
