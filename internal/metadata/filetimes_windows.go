//go:build windows

package metadata

import (
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// SetFileTimes sets creation, access and modification time of path to t.
// Creation time is best effort: when it cannot be set, access and
// modification time are still applied.
func SetFileTimes(path string, t time.Time) error {
	if err := setAllTimes(path, t); err == nil {
		return nil
	}
	return os.Chtimes(path, t, t)
}

func setAllTimes(path string, t time.Time) error {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	handle, err := windows.CreateFile(name,
		windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(handle)

	ft := windows.NsecToFiletime(t.UnixNano())
	return windows.SetFileTime(handle, &ft, &ft, &ft)
}
