package lifecycle

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/manifest"
)

// runScript materializes script's contents (already loaded into memory
// by manifest.LoadScripts, so this works even after the scratch
// directory that originally held it has been removed) to a temp file
// and executes it with /bin/sh -e, surfacing a nonzero exit as
// lpmerr.FailedExecutingStage1Script.
func runScript(ctx context.Context, set manifest.ScriptSet, phase manifest.Phase) error {
	script, ok := set.Lookup(phase)
	if !ok {
		return nil
	}

	tmp, err := os.CreateTemp("", "lpm-script-"+string(phase)+"-*.sh")
	if err != nil {
		return &lpmerr.IOError{Op: "create", Path: "lpm-script-" + string(phase), Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(script.Contents); err != nil {
		tmp.Close()
		return &lpmerr.IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &lpmerr.IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o700); err != nil {
		return &lpmerr.IOError{Op: "chmod", Path: tmpPath, Err: err}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "/bin/sh", "-e", tmpPath)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &lpmerr.PackageError{
			Kind:   lpmerr.FailedExecutingStage1Script,
			Script: string(phase),
			Stderr: stderr.String(),
		}
	}
	return nil
}

// copyScripts copies every script the package shipped into
// /var/lib/lpm/pkg/<name>/scripts/<phase>, creating parent directories
// as needed.
func copyScripts(set manifest.ScriptSet, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &lpmerr.IOError{Op: "mkdir", Path: destDir, Err: err}
	}

	for _, phase := range allPhases {
		script, ok := set.Lookup(phase)
		if !ok {
			continue
		}
		dest := filepath.Join(destDir, string(phase))
		if err := os.WriteFile(dest, []byte(script.Contents), 0o700); err != nil {
			return &lpmerr.IOError{Op: "write", Path: dest, Err: err}
		}
	}
	return nil
}

var allPhases = []manifest.Phase{
	manifest.PreInstall, manifest.PostInstall,
	manifest.PreDelete, manifest.PostDelete,
	manifest.PreUpgrade, manifest.PostUpgrade,
	manifest.PreDowngrade, manifest.PostDowngrade,
}
