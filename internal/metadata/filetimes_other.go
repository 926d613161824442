//go:build !unix && !windows

package metadata

import (
	"os"
	"time"
)

// SetFileTimes sets access and modification time of path to t.
func SetFileTimes(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}
