package pairing

import (
	"maps"
	"sort"

	"metafix/internal/media"
	"metafix/internal/signature"
)

// Entry is an unassigned sidecar with its precomputed signature.
type Entry struct {
	Sidecar   media.Sidecar
	Signature signature.Sidecar
}

// Pool holds the sidecars no media file has claimed yet, grouped by
// directory in scan order. A Pool value is never modified; Remove returns
// the next one.
type Pool struct {
	byDir map[string][]Entry
	size  int
}

// NewPool builds a pool from sidecars listed in scan order.
func NewPool(sidecars []media.Sidecar) Pool {
	byDir := make(map[string][]Entry)
	for _, sc := range sidecars {
		byDir[sc.Dir] = append(byDir[sc.Dir], Entry{Sidecar: sc, Signature: signature.ForSidecar(sc.Stem)})
	}
	return Pool{byDir: byDir, size: len(sidecars)}
}

// In returns the unassigned sidecars of dir in scan order.
func (p Pool) In(dir string) []Entry {
	return p.byDir[dir]
}

// Len returns the number of unassigned sidecars.
func (p Pool) Len() int {
	return p.size
}

// Remove returns a pool without entry. The receiver is left
// untouched.
func (p Pool) Remove(entry Entry) Pool {
	current := p.byDir[entry.Sidecar.Dir]
	next := make([]Entry, 0, len(current))
	for _, e := range current {
		if e.Sidecar.Path != entry.Sidecar.Path {
			next = append(next, e)
		}
	}
	if len(next) == len(current) {
		return p
	}

	byDir := maps.Clone(p.byDir)
	if len(next) == 0 {
		delete(byDir, entry.Sidecar.Dir)
	} else {
		byDir[entry.Sidecar.Dir] = next
	}
	return Pool{byDir: byDir, size: p.size - 1}
}

// Remaining lists every unassigned sidecar in path order.
func (p Pool) Remaining() []media.Sidecar {
	out := make([]media.Sidecar, 0, p.size)
	for _, entries := range p.byDir {
		for _, e := range entries {
			out = append(out, e.Sidecar)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
