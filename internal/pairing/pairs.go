package pairing

import (
	"fmt"
	"sort"

	"metafix/internal/media"
)

// RuleLivePhoto names pairs produced by DeriveLive.
const RuleLivePhoto = "live-photo"

// Pair binds a media file to the sidecar that describes it.
type Pair struct {
	Media   media.File
	Sidecar media.Sidecar
	// Rule names the match rule that produced the pair.
	Rule string
	// Derived marks sidecars synthesized for a live photo video.
	Derived bool
	// Seq is the media file's position in scan order.
	Seq int
}

// Pairs is the set of matched pairs keyed by media path. Each media file and
// each sidecar appears at most once.
type Pairs struct {
	items     []Pair
	byMedia   map[string]int
	bySidecar map[string]int
}

// NewPairs returns an empty set.
func NewPairs() *Pairs {
	return &Pairs{byMedia: map[string]int{}, bySidecar: map[string]int{}}
}

// Add records a pair. It refuses a media file or sidecar that is already
// paired.
func (p *Pairs) Add(pair Pair) error {
	if _, ok := p.byMedia[pair.Media.Path]; ok {
		return fmt.Errorf("media %s already paired", pair.Media.Path)
	}
	if _, ok := p.bySidecar[pair.Sidecar.Path]; ok {
		return fmt.Errorf("sidecar %s already paired", pair.Sidecar.Path)
	}
	p.items = append(p.items, pair)
	p.byMedia[pair.Media.Path] = len(p.items) - 1
	p.bySidecar[pair.Sidecar.Path] = len(p.items) - 1
	return nil
}

// Len returns the number of pairs.
func (p *Pairs) Len() int {
	return len(p.items)
}

// Lookup returns the pair keyed on mediaPath.
func (p *Pairs) Lookup(mediaPath string) (Pair, bool) {
	idx, ok := p.byMedia[mediaPath]
	if !ok {
		return Pair{}, false
	}
	return p.items[idx], true
}

// All returns a copy of the pairs in scan order.
func (p *Pairs) All() []Pair {
	out := append([]Pair(nil), p.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Rekey replaces the pair stored under oldMediaPath with updated, which
// usually carries renamed paths. Seq and Rule are kept from the old entry.
func (p *Pairs) Rekey(oldMediaPath string, updated Pair) error {
	idx, ok := p.byMedia[oldMediaPath]
	if !ok {
		return fmt.Errorf("no pair for %s", oldMediaPath)
	}
	current := p.items[idx]
	if other, taken := p.byMedia[updated.Media.Path]; taken && other != idx {
		return fmt.Errorf("media %s already paired", updated.Media.Path)
	}
	if other, taken := p.bySidecar[updated.Sidecar.Path]; taken && other != idx {
		return fmt.Errorf("sidecar %s already paired", updated.Sidecar.Path)
	}

	updated.Seq = current.Seq
	updated.Rule = current.Rule
	updated.Derived = current.Derived
	delete(p.byMedia, current.Media.Path)
	delete(p.bySidecar, current.Sidecar.Path)
	p.items[idx] = updated
	p.byMedia[updated.Media.Path] = idx
	p.bySidecar[updated.Sidecar.Path] = idx
	return nil
}
