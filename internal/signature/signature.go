// Package signature derives comparable name fragments from media and sidecar
// filenames. The export truncates names to a fixed width and appends "(N)" to
// duplicates, so pairing compares these fragments instead of whole names.
package signature

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"metafix/internal/media"
)

// CutWidth is the number of characters the exporter keeps from a name.
const CutWidth = 45

var dedupPattern = regexp.MustCompile(`\(\d{1,2}\)$`)

// Name holds the fragments of a media filename.
type Name struct {
	FullCut      string
	StemCut      string
	Dedup        string
	FullNoDupCut string
	StemNoDupCut string
}

// HasDedup reports whether the stem ended in a "(N)" marker.
func (n Name) HasDedup() bool { return n.Dedup != "" }

// Sidecar holds the fragments of a sidecar stem.
type Sidecar struct {
	// Candidate is the media name part the sidecar refers to, cut to CutWidth.
	Candidate string
	// Embedded is the dotted media extension found inside the stem, if any.
	Embedded string
	Dedup    string
}

// HasEmbedded reports whether the stem carried a media extension marker.
func (s Sidecar) HasEmbedded() bool { return s.Embedded != "" }

// HasDedup reports whether the stem ended in a "(N)" marker.
func (s Sidecar) HasDedup() bool { return s.Dedup != "" }

// Cut returns the first CutWidth characters of value.
func Cut(value string) string {
	if utf8.RuneCountInString(value) <= CutWidth {
		return value
	}
	runes := []rune(value)
	return string(runes[:CutWidth])
}

// DedupSuffix returns the trailing "(N)" marker of stem, or "".
func DedupSuffix(stem string) string {
	return dedupPattern.FindString(stem)
}

// ForMedia computes the signature of a media filename such as "IMG(1).jpg".
func ForMedia(name string) Name {
	name = norm.NFC.String(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	sig := Name{
		FullCut: Cut(name),
		StemCut: Cut(stem),
	}
	if dup := DedupSuffix(stem); dup != "" {
		base := strings.TrimSuffix(stem, dup)
		sig.Dedup = dup
		sig.FullNoDupCut = Cut(base + ext)
		sig.StemNoDupCut = Cut(base)
	}
	return sig
}

// ForSidecar computes the signature of a sidecar stem, the name without its
// final ".json".
func ForSidecar(stem string) Sidecar {
	stem = norm.NFC.String(stem)
	var sig Sidecar
	if dup := DedupSuffix(stem); dup != "" {
		sig.Dedup = dup
		stem = strings.TrimSuffix(stem, dup)
	}

	parts := strings.Split(stem, ".")
	candidate := parts[0]
	if len(parts) >= 2 && media.IsMediaExt("."+parts[1]) {
		sig.Embedded = "." + parts[1]
		candidate = parts[0] + sig.Embedded
	}
	sig.Candidate = Cut(candidate)
	return sig
}
