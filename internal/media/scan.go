package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Inventory is everything a scan found, in lexical path order.
type Inventory struct {
	Root     string
	Media    []File
	Sidecars []Sidecar
	Errors   []ScanError
}

// ScanError records a path the walk could not enter or stat.
type ScanError struct {
	Path string
	Err  error
}

// ScanOptions tunes Scan.
type ScanOptions struct {
	// Skip lists directories whose subtrees are ignored, such as an
	// inspection area nested inside the archive.
	Skip []string
}

// ResolveRoot returns the absolute, symlink-free form of an archive root and
// fails unless it names an existing directory. WalkDir does not descend into
// a symlinked root, so every walk starts from the resolved path.
func ResolveRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New("archive root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	return filepath.Clean(resolved), nil
}

// Scan walks root and collects media files and JSON sidecars. Unreadable
// subdirectories are recorded in Inventory.Errors and skipped. Other files
// are ignored.
func Scan(root string, opts ScanOptions) (Inventory, error) {
	abs, err := ResolveRoot(root)
	if err != nil {
		return Inventory{}, Wrap(ErrValidation, "scan", "resolve root", root, err)
	}

	skip := make(map[string]struct{}, len(opts.Skip))
	for _, dir := range opts.Skip {
		if dir = strings.TrimSpace(dir); dir == "" {
			continue
		}
		if cleaned, err := filepath.Abs(dir); err == nil {
			skip[cleaned] = struct{}{}
			if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
				skip[resolved] = struct{}{}
			}
		}
	}

	inv := Inventory{Root: abs}
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			inv.Errors = append(inv.Errors, ScanError{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, ok := skip[path]; ok && path != abs {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		switch {
		case ext == SidecarExt:
			inv.Sidecars = append(inv.Sidecars, NewSidecar(path))
		case IsMediaExt(ext):
			inv.Media = append(inv.Media, NewFile(path))
		}
		return nil
	})
	if walkErr != nil {
		return Inventory{}, Wrap(ErrValidation, "scan", "walk", abs, walkErr)
	}

	sort.Slice(inv.Media, func(i, j int) bool { return inv.Media[i].Path < inv.Media[j].Path })
	sort.Slice(inv.Sidecars, func(i, j int) bool { return inv.Sidecars[i].Path < inv.Sidecars[j].Path })
	return inv, nil
}
