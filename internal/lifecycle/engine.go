// Package lifecycle implements the install, upgrade/downgrade, and
// delete orchestration that drives every other component: it extracts
// and validates a blob, runs the package's stage-1 scripts, reconciles
// files on disk, and keeps the catalog transactionally consistent with
// whatever state those steps leave behind.
package lifecycle

import (
	"net/http"
	"path/filepath"

	"github.com/lodosgroup/lpm/internal/lpmctx"
	"github.com/lodosgroup/lpm/internal/version"
)

// Engine bundles everything a lifecycle operation needs beyond the
// per-call arguments. Root lets tests substitute a temp directory for
// "/"; a production Engine leaves it empty.
type Engine struct {
	Ctx *lpmctx.Ctx

	// CorePath is the catalog database file path. Install-from-repository
	// opens one fresh *catalog.Store per closure member from this path, so
	// each parallel install gets its own connection.
	CorePath string

	Root        string
	HostArch    string
	SelfVersion version.Version
	HTTPClient  *http.Client
	CacheRoot   string
}

func (e *Engine) httpClient() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return http.DefaultClient
}

// rooted joins an absolute in-system path (e.g. "/etc/foo") onto e.Root,
// so a test Engine can run entirely under a t.TempDir() while production
// code with Root == "" gets the real path back unchanged.
func (e *Engine) rooted(absPath string) string {
	if e.Root == "" {
		return absPath
	}
	return filepath.Join(e.Root, absPath)
}

// pkgScriptsDir is where a package's stage-1 scripts live once installed,
// keyed by name: /var/lib/lpm/pkg/<name>/scripts.
func (e *Engine) pkgScriptsDir(name string) string {
	return e.rooted(filepath.Join("/var/lib/lpm/pkg", name, "scripts"))
}

func (e *Engine) pkgDir(name string) string {
	return e.rooted(filepath.Join("/var/lib/lpm/pkg", name))
}
