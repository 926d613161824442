package pairing_test

import (
	"path/filepath"
	"strings"
	"testing"

	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/pairing"
	"metafix/internal/signature"
)

func files(paths ...string) []media.File {
	out := make([]media.File, 0, len(paths))
	for _, p := range paths {
		out = append(out, media.NewFile(p))
	}
	return out
}

func sidecars(paths ...string) []media.Sidecar {
	out := make([]media.Sidecar, 0, len(paths))
	for _, p := range paths {
		out = append(out, media.NewSidecar(p))
	}
	return out
}

func sidecarOf(t *testing.T, res pairing.Result, mediaPath string) string {
	t.Helper()
	pair, ok := res.Pairs.Lookup(mediaPath)
	if !ok {
		return ""
	}
	return pair.Sidecar.Path
}

func TestMatchEmbeddedExtension(t *testing.T) {
	res := pairing.Match(
		files("/a/IMG_20230101.jpg"),
		sidecars("/a/IMG_20230101.jpg.json"),
		logging.NewNop(),
	)
	if got := sidecarOf(t, res, "/a/IMG_20230101.jpg"); got != "/a/IMG_20230101.jpg.json" {
		t.Fatalf("expected embedded match, got %q", got)
	}
	pair, _ := res.Pairs.Lookup("/a/IMG_20230101.jpg")
	if pair.Rule != "image/embedded" {
		t.Fatalf("expected image/embedded rule, got %s", pair.Rule)
	}
	if res.Pool.Len() != 0 || len(res.Unmatched) != 0 {
		t.Fatalf("expected nothing left over, pool=%d unmatched=%d", res.Pool.Len(), len(res.Unmatched))
	}
}

func TestMatchTruncatedNames(t *testing.T) {
	long := strings.Repeat("x", 60)
	mediaPath := "/a/" + long + ".jpg"
	sidecarPath := "/a/" + long[:signature.CutWidth] + ".json"
	res := pairing.Match(files(mediaPath), sidecars(sidecarPath), logging.NewNop())
	if got := sidecarOf(t, res, mediaPath); got != sidecarPath {
		t.Fatalf("expected truncated stem match, got %q", got)
	}
}

func TestMatchIsOneToOne(t *testing.T) {
	res := pairing.Match(
		files("/a/IMG.jpg", "/a/IMG.png"),
		sidecars("/a/IMG.json"),
		logging.NewNop(),
	)
	if res.Pairs.Len() != 1 {
		t.Fatalf("expected a single pair, got %d", res.Pairs.Len())
	}
	if got := sidecarOf(t, res, "/a/IMG.jpg"); got != "/a/IMG.json" {
		t.Fatalf("expected first media in scan order to win, got %q", got)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].Path != "/a/IMG.png" {
		t.Fatalf("unexpected unmatched set %#v", res.Unmatched)
	}
}

func TestMatchImagesBeatVideos(t *testing.T) {
	base := strings.Repeat("a", 50)
	image := "/a/" + base + ".jpg"
	video := "/a/" + base + ".mp4"
	shared := "/a/" + base[:46] + ".jpg.json"

	// The video sorts first, yet the image must still win the sidecar.
	res := pairing.Match(files(video, image), sidecars(shared), logging.NewNop())
	if got := sidecarOf(t, res, image); got != shared {
		t.Fatalf("expected image to claim the sidecar, got %q", got)
	}
	if got := sidecarOf(t, res, video); got != "" {
		t.Fatalf("video must not receive a sidecar, got %q", got)
	}
}

func TestMatchEmbeddedBeforeStem(t *testing.T) {
	res := pairing.Match(
		files("/a/IMG.jpg", "/a/IMG.jpeg"),
		sidecars("/a/IMG.json", "/a/IMG.jpeg.json"),
		logging.NewNop(),
	)
	if got := sidecarOf(t, res, "/a/IMG.jpeg"); got != "/a/IMG.jpeg.json" {
		t.Fatalf("expected embedded sidecar for IMG.jpeg, got %q", got)
	}
	if got := sidecarOf(t, res, "/a/IMG.jpg"); got != "/a/IMG.json" {
		t.Fatalf("expected stem sidecar for IMG.jpg, got %q", got)
	}
}

func TestMatchDedupSuffixMustAgree(t *testing.T) {
	res := pairing.Match(
		files("/a/IMG(1).jpg"),
		sidecars("/a/IMG.jpg(2).json"),
		logging.NewNop(),
	)
	if res.Pairs.Len() != 0 {
		t.Fatal("(1) media must not match a (2) sidecar")
	}

	res = pairing.Match(
		files("/a/IMG(1).jpg", "/a/IMG(2).jpg"),
		sidecars("/a/IMG.jpg(1).json", "/a/IMG.jpg(2).json"),
		logging.NewNop(),
	)
	if got := sidecarOf(t, res, "/a/IMG(1).jpg"); got != "/a/IMG.jpg(1).json" {
		t.Fatalf("unexpected sidecar for IMG(1).jpg: %q", got)
	}
	if got := sidecarOf(t, res, "/a/IMG(2).jpg"); got != "/a/IMG.jpg(2).json" {
		t.Fatalf("unexpected sidecar for IMG(2).jpg: %q", got)
	}
}

func TestMatchBareStemDedup(t *testing.T) {
	res := pairing.Match(files("/a/IMG(3).png"), sidecars("/a/IMG(3).json"), logging.NewNop())
	pair, ok := res.Pairs.Lookup("/a/IMG(3).png")
	if !ok || pair.Rule != "image/stem/dedup" {
		t.Fatalf("expected image/stem/dedup pair, got %#v ok=%v", pair, ok)
	}
}

func TestMatchNeverCrossesDirectories(t *testing.T) {
	res := pairing.Match(
		files(filepath.Join("/a", "IMG.jpg")),
		sidecars(filepath.Join("/b", "IMG.jpg.json")),
		logging.NewNop(),
	)
	if res.Pairs.Len() != 0 {
		t.Fatal("sidecars in another directory must not match")
	}
	if got := res.Pool.Remaining(); len(got) != 1 {
		t.Fatalf("expected sidecar to stay in the pool, got %d", len(got))
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	fs := files("/a/IMG.jpg", "/a/IMG.png", "/a/VID.mp4", "/b/IMG.jpg")
	ss := sidecars("/a/IMG.json", "/a/VID.mp4.json", "/b/IMG.jpg.json")
	first := pairing.Match(fs, ss, logging.NewNop()).Pairs.All()
	for i := 0; i < 5; i++ {
		again := pairing.Match(fs, ss, logging.NewNop()).Pairs.All()
		if len(again) != len(first) {
			t.Fatalf("run %d: pair count changed", i)
		}
		for j := range first {
			if first[j].Media.Path != again[j].Media.Path || first[j].Sidecar.Path != again[j].Sidecar.Path {
				t.Fatalf("run %d: assignment changed at %d", i, j)
			}
		}
	}
}

func TestRuleTableInIsolation(t *testing.T) {
	cases := []struct {
		rule    string
		media   string
		sidecar string
		want    bool
	}{
		{"image/embedded", "IMG.jpg", "IMG.jpg", true},
		{"image/embedded", "IMG.jpg", "IMG", false},
		{"image/embedded", "IMG(1).jpg", "IMG.jpg(1)", false},
		{"image/embedded/dedup", "IMG(1).jpg", "IMG.jpg(1)", true},
		{"image/embedded/dedup", "IMG.jpg", "IMG.jpg(1)", false},
		{"image/stem", "IMG.jpg", "IMG", true},
		{"image/stem", "IMG.jpg", "IMG(1)", false},
		{"image/stem/dedup", "IMG(1).jpg", "IMG(1)", true},
		{"image/stem/dedup", "IMG(1).jpg", "IMG(2)", false},
	}
	rules := map[string]pairing.Rule{}
	for _, r := range pairing.Rules {
		rules[r.Name] = r
	}
	for _, tc := range cases {
		rule, ok := rules[tc.rule]
		if !ok {
			t.Fatalf("rule %s missing from table", tc.rule)
		}
		got := rule.Match(signature.ForMedia(tc.media), signature.ForSidecar(tc.sidecar))
		if got != tc.want {
			t.Errorf("%s: %s vs %s = %v, want %v", tc.rule, tc.media, tc.sidecar, got, tc.want)
		}
	}
}

func TestRuleTableOrdersImagesFirst(t *testing.T) {
	seenVideo := false
	for _, r := range pairing.Rules {
		if r.Kind == media.KindVideo {
			seenVideo = true
		}
		if r.Kind == media.KindImage && seenVideo {
			t.Fatalf("image rule %s listed after a video rule", r.Name)
		}
	}
}
