package pairing

import (
	"metafix/internal/media"
	"metafix/internal/signature"
)

// Rule is one row of the match table. A rule only considers media of its
// Kind, and only sidecars whose embedded-extension marker agrees with
// Embedded. Dedup rules require the same "(N)" marker on both names.
type Rule struct {
	Name     string
	Kind     media.Kind
	Embedded bool
	Dedup    bool
}

// Rules is evaluated top to bottom. Every image rule precedes every video
// rule so a video can never take a sidecar an image could have claimed.
var Rules = []Rule{
	{Name: "image/embedded", Kind: media.KindImage, Embedded: true},
	{Name: "image/embedded/dedup", Kind: media.KindImage, Embedded: true, Dedup: true},
	{Name: "image/stem", Kind: media.KindImage},
	{Name: "image/stem/dedup", Kind: media.KindImage, Dedup: true},
	{Name: "video/embedded", Kind: media.KindVideo, Embedded: true},
	{Name: "video/embedded/dedup", Kind: media.KindVideo, Embedded: true, Dedup: true},
	{Name: "video/stem", Kind: media.KindVideo},
	{Name: "video/stem/dedup", Kind: media.KindVideo, Dedup: true},
}

// Match reports whether the sidecar signature satisfies the rule for the
// media signature. Directory and kind are checked by the caller.
func (r Rule) Match(m signature.Name, s signature.Sidecar) bool {
	if s.HasEmbedded() != r.Embedded {
		return false
	}
	if !r.Dedup {
		if s.HasDedup() {
			return false
		}
		key := m.StemCut
		if r.Embedded {
			key = m.FullCut
		}
		return key == s.Candidate
	}
	if !m.HasDedup() || !s.HasDedup() || m.Dedup != s.Dedup {
		return false
	}
	key := m.StemNoDupCut
	if r.Embedded {
		key = m.FullNoDupCut
	}
	return key == s.Candidate
}
