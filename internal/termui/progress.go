package termui

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// NewDownloadBar returns a progress bar sized to totalBytes, labeled
// with the package name being fetched. Grounded in the progressbar.Default
// usage pattern from the retrieved dependency-fetch examples, but sized
// explicitly since download totals are known up front from Content-Length.
func NewDownloadBar(out io.Writer, totalBytes int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("downloading "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}
