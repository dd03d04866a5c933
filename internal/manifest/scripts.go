package manifest

import (
	"os"
	"path/filepath"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// Phase names one of the fixed stage-1 lifecycle hooks. Script lookup is
// filename-based, not JSON: a phase's script is present iff a file with
// this name exists directly under the package's scripts/ directory.
type Phase string

const (
	PreInstall    Phase = "pre_install"
	PostInstall   Phase = "post_install"
	PreDelete     Phase = "pre_delete"
	PostDelete    Phase = "post_delete"
	PreUpgrade    Phase = "pre_upgrade"
	PostUpgrade   Phase = "post_upgrade"
	PreDowngrade  Phase = "pre_downgrade"
	PostDowngrade Phase = "post_downgrade"
)

// phases is the fixed lookup order; it matches the field order the
// original builder emits scripts in, though order has no semantic
// weight here since at most one phase ever runs per lifecycle step.
var phases = []Phase{
	PreInstall, PostInstall,
	PreDelete, PostDelete,
	PreDowngrade, PostDowngrade,
	PreUpgrade, PostUpgrade,
}

// Script is one loaded stage-1 hook: the shell source found on disk for
// a phase, plus the path it was read from.
type Script struct {
	Phase    Phase
	Path     string
	Contents string
}

// ScriptSet holds the subset of phases a package actually shipped a
// script for.
type ScriptSet struct {
	scripts map[Phase]Script
}

// Lookup returns the script for phase, if the package shipped one.
func (s ScriptSet) Lookup(phase Phase) (Script, bool) {
	sc, ok := s.scripts[phase]
	return sc, ok
}

// LoadScripts reads every present phase script under scriptsDir. A
// missing file for a given phase is not an error — most packages don't
// carry every hook — but any other read failure is reported as an
// lpmerr.IOError.
func LoadScripts(scriptsDir string) (ScriptSet, error) {
	set := ScriptSet{scripts: make(map[Phase]Script)}

	for _, phase := range phases {
		path := filepath.Join(scriptsDir, string(phase))
		contents, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return ScriptSet{}, &lpmerr.IOError{Op: "read", Path: path, Err: err}
		}
		set.scripts[phase] = Script{Phase: phase, Path: path, Contents: string(contents)}
	}

	return set, nil
}
