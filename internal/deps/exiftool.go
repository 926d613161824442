package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const versionCheckTimeout = 10 * time.Second

// ExiftoolRequirement describes the metadata writer.
func ExiftoolRequirement(binary string) Requirement {
	return Requirement{
		Name:        "ExifTool",
		Command:     binary,
		Description: "Writes capture dates and GPS tags into media files",
	}
}

// CheckExiftool reports whether binary can be executed and, when it can,
// records its version in Detail. Metadata application is skipped for every
// pair when this reports unavailable, but file times are still set.
func CheckExiftool(ctx context.Context, binary string) Status {
	status := Check(ExiftoolRequirement(binary))
	if !status.Available {
		return status
	}
	if resolved, err := exec.LookPath(status.Command); err == nil {
		status.Command = resolved
	}
	if info, err := os.Stat(status.Command); err == nil && !isExecutable(info) {
		status.Available = false
		status.Detail = fmt.Sprintf("%s is not executable", status.Command)
		return status
	}

	checkCtx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()
	out, err := exec.CommandContext(checkCtx, status.Command, "-ver").Output()
	if err != nil {
		status.Available = false
		status.Detail = fmt.Sprintf("version check failed: %v", err)
		return status
	}
	if version := strings.TrimSpace(string(out)); version != "" {
		status.Detail = "version " + version
	}
	return status
}

// LocalExiftool returns the exiftool path inside dir when one exists there.
func LocalExiftool(dir string) (string, bool) {
	name := "exiftool"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidate := filepath.Join(dir, name)
	info, err := os.Stat(candidate)
	if err != nil || !isExecutable(info) {
		return "", false
	}
	return candidate, true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
