package archive

import (
	"os"

	"github.com/karrick/godirwalk"

	"github.com/lodosgroup/lpm/internal/termui"
)

// Cleanup removes the scratch directory recursively. It walks the tree
// with godirwalk to remove nodes in deterministic post-order (children
// before parents), falling back to a best-effort os.RemoveAll with a
// logged warning if the walk itself fails partway through.
func (s *Scratch) Cleanup(log *termui.Logger) {
	var nodes []string
	err := godirwalk.Walk(s.Dir, &godirwalk.Options{
		Callback: func(path string, _ *godirwalk.Dirent) error {
			nodes = append(nodes, path)
			return nil
		},
	})
	if err != nil {
		if log != nil {
			log.Errorf("scratch walk failed for %s: %v, falling back to RemoveAll", s.Dir, err)
		}
		os.RemoveAll(s.Dir)
		return
	}

	// godirwalk visits a directory before its children, so removing in
	// reverse order deletes every child before its parent.
	for i := len(nodes) - 1; i >= 0; i-- {
		if err := os.Remove(nodes[i]); err != nil && log != nil {
			log.Errorf("failed removing scratch node %s: %v", nodes[i], err)
		}
	}
}
