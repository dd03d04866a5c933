// Package lpmctx holds the handles a lifecycle operation threads
// through every step: the open catalog, the per-name lock table, the
// terminal for prompts and status, and whether confirmation prompts
// are auto-accepted.
package lpmctx

import (
	"bufio"
	"io"
	"strings"

	"github.com/lodosgroup/lpm/internal/catalog"
	"github.com/lodosgroup/lpm/internal/lock"
	"github.com/lodosgroup/lpm/internal/termui"
)

// Ctx bundles the dependencies every lifecycle and module operation
// needs, passed by reference through a call chain rather than
// package-level globals.
type Ctx struct {
	Store    *catalog.Store
	Locks    *lock.Table
	Log      *termui.Logger
	ForceYes bool
}

// AskForConfirmation prompts q on Log.Out and reads a y/n answer from
// in. When ForceYes is set, it returns true without prompting. Unlike
// the single-keystroke-looking original, input here is line-buffered
// and re-prompts on anything but a bare y/yes or n/no line.
func (c *Ctx) AskForConfirmation(in io.Reader, q string) bool {
	if c.ForceYes {
		return true
	}

	scanner := bufio.NewScanner(in)
	for {
		c.Log.Infof("%s [y/n]", q)
		if !scanner.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}
