//go:build unix

package metadata

import (
	"time"

	"golang.org/x/sys/unix"
)

// SetFileTimes sets access and modification time of path to t.
func SetFileTimes(path string, t time.Time) error {
	ts := unix.NsecToTimespec(t.UnixNano())
	return unix.UtimesNano(path, []unix.Timespec{ts, ts})
}
