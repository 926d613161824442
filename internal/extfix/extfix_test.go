package extfix_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"metafix/internal/extfix"
	"metafix/internal/fileutil"
	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/pairing"
	"metafix/internal/sidecar"
	"metafix/internal/testsupport"
)

type fakeDetector map[string]extfix.Type

func (f fakeDetector) Detect(path string) (extfix.Type, error) {
	if t, ok := f[filepath.Base(path)]; ok {
		return t, nil
	}
	return extfix.Type{}, extfix.ErrUnrecognized
}

func newPairs(t *testing.T, pairs ...[2]string) *pairing.Pairs {
	t.Helper()
	set := pairing.NewPairs()
	for i, p := range pairs {
		if err := set.Add(pairing.Pair{Media: media.NewFile(p[0]), Sidecar: media.NewSidecar(p[1]), Seq: i}); err != nil {
			t.Fatalf("add pair: %v", err)
		}
	}
	return set
}

func titleOf(t *testing.T, path string) string {
	t.Helper()
	p, err := sidecar.Load(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return p.Title()
}

func TestCorrectRenamesPairInLockstep(t *testing.T) {
	dir := t.TempDir()
	heic := filepath.Join(dir, "photo.heic")
	json := filepath.Join(dir, "photo.heic.json")
	testsupport.WriteBytes(t, heic, testsupport.JPEGBytes)
	testsupport.WriteSidecar(t, json, "photo.heic", 1672531200)

	pairs := newPairs(t, [2]string{heic, json})
	outcomes := extfix.NewCorrector(extfix.FiletypeDetector{}, logging.NewNop()).Correct(pairs)

	if len(outcomes) != 1 || outcomes[0].Status != extfix.StatusRenamed {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	wantMedia := filepath.Join(dir, "photo.jpg")
	wantJSON := filepath.Join(dir, "photo.jpg.json")
	testsupport.AssertExists(t, wantMedia)
	testsupport.AssertExists(t, wantJSON)
	testsupport.AssertMissing(t, heic)
	testsupport.AssertMissing(t, json)
	if got := titleOf(t, wantJSON); got != "photo.jpg" {
		t.Fatalf("title = %q", got)
	}
	pair, ok := pairs.Lookup(wantMedia)
	if !ok || pair.Sidecar.Path != wantJSON {
		t.Fatalf("pairs not re-keyed: %+v %v", pair, ok)
	}
	if _, ok := pairs.Lookup(heic); ok {
		t.Fatal("old key still present")
	}
	if outcomes[0].OldMedia != heic || outcomes[0].Detected != ".jpg" {
		t.Fatalf("unexpected outcome detail %+v", outcomes[0])
	}
}

func TestCorrectAvoidsExistingName(t *testing.T) {
	dir := t.TempDir()
	heic := filepath.Join(dir, "photo.heic")
	json := filepath.Join(dir, "photo.heic.json")
	existing := filepath.Join(dir, "photo.jpg")
	testsupport.WriteBytes(t, heic, testsupport.JPEGBytes)
	testsupport.WriteSidecar(t, json, "photo.heic", 0)
	testsupport.WriteBytes(t, existing, []byte("keep me"))

	pairs := newPairs(t, [2]string{heic, json})
	extfix.NewCorrector(extfix.FiletypeDetector{}, logging.NewNop()).Correct(pairs)

	testsupport.AssertExists(t, filepath.Join(dir, "photo_1.jpg"))
	testsupport.AssertExists(t, filepath.Join(dir, "photo_1.jpg.json"))
	if got := string(testsupport.ReadFile(t, existing)); got != "keep me" {
		t.Fatalf("existing file overwritten: %q", got)
	}
	if got := titleOf(t, filepath.Join(dir, "photo_1.jpg.json")); got != "photo_1.jpg" {
		t.Fatalf("title = %q", got)
	}
}

func TestFreeNameCountsPastTakenSuffixes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"photo.png", "photo_1.png", "photo_2.png", "photo_3.png"} {
		testsupport.WriteBytes(t, filepath.Join(dir, name), []byte("x"))
	}
	if got := extfix.FreeName(dir, "photo", ".png"); got != "photo_4.png" {
		t.Fatalf("FreeName = %q, want photo_4.png", got)
	}
	if got := extfix.FreeName(dir, "other", ".png"); got != "other.png" {
		t.Fatalf("FreeName = %q, want other.png", got)
	}
}

func TestFreeNameReplacesTrailingSuffix(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteBytes(t, filepath.Join(dir, "IMG_7.png"), []byte("x"))
	if got := extfix.FreeName(dir, "IMG_7", ".png"); got != "IMG_1.png" {
		t.Fatalf("FreeName = %q, want IMG_1.png", got)
	}
}

func TestFreeNameTreatsOrphanSidecarAsTaken(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteSidecar(t, filepath.Join(dir, "clip.mp4.json"), "clip.mp4", 0)
	if got := extfix.FreeName(dir, "clip", ".mp4"); got != "clip_1.mp4" {
		t.Fatalf("FreeName = %q, want clip_1.mp4", got)
	}
}

func TestMismatchAliases(t *testing.T) {
	cases := []struct {
		current, detected string
		want              bool
	}{
		{".jpeg", ".jpg", false},
		{".JPG", ".jpg", false},
		{".tiff", ".tif", false},
		{".heic", ".heif", false},
		{".nef", ".tif", false},
		{".ARW", ".tif", false},
		{".jpg", ".png", true},
		{".heic", ".jpg", true},
		{".mp4", ".mov", true},
	}
	for _, tc := range cases {
		if got := extfix.Mismatch(tc.current, tc.detected); got != tc.want {
			t.Errorf("Mismatch(%q, %q) = %v, want %v", tc.current, tc.detected, got, tc.want)
		}
	}
	if extfix.TargetExt(".heif") != ".heic" || extfix.TargetExt(".jpeg") != ".jpg" {
		t.Fatal("unexpected preferred spelling")
	}
}

func TestCorrectSkipsUnrecognizedContent(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "mystery.jpg")
	json := filepath.Join(dir, "mystery.jpg.json")
	testsupport.WriteBytes(t, img, []byte("plain text, no magic"))
	testsupport.WriteSidecar(t, json, "mystery.jpg", 0)

	pairs := newPairs(t, [2]string{img, json})
	outcomes := extfix.NewCorrector(nil, logging.NewNop()).Correct(pairs)

	if outcomes[0].Status != extfix.StatusUndetected || !errors.Is(outcomes[0].Err, extfix.ErrUnrecognized) {
		t.Fatalf("unexpected outcome %+v", outcomes[0])
	}
	testsupport.AssertExists(t, img)
	if _, ok := pairs.Lookup(img); !ok {
		t.Fatal("pair should keep its key")
	}
}

func TestCorrectIgnoresNonMediaDetection(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "archive.jpg")
	json := filepath.Join(dir, "archive.jpg.json")
	testsupport.WriteBytes(t, img, []byte("x"))
	testsupport.WriteSidecar(t, json, "archive.jpg", 0)

	det := fakeDetector{"archive.jpg": {Extension: "zip", MIME: "application/zip"}}
	outcomes := extfix.NewCorrector(det, logging.NewNop()).Correct(newPairs(t, [2]string{img, json}))

	if outcomes[0].Status != extfix.StatusNotMedia {
		t.Fatalf("status = %s", outcomes[0].Status)
	}
	testsupport.AssertExists(t, img)
}

func TestCorrectLeavesRawTIFFAlone(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "DSC_0001.NEF")
	json := filepath.Join(dir, "DSC_0001.NEF.json")
	testsupport.WriteBytes(t, raw, []byte("x"))
	testsupport.WriteSidecar(t, json, "DSC_0001.NEF", 0)

	det := fakeDetector{"DSC_0001.NEF": {Extension: "tif"}}
	outcomes := extfix.NewCorrector(det, logging.NewNop()).Correct(newPairs(t, [2]string{raw, json}))
	if outcomes[0].Status != extfix.StatusUnchanged {
		t.Fatalf("status = %s", outcomes[0].Status)
	}
}

func TestCorrectMediaRenameFailureKeepsPair(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "pic.png")
	json := filepath.Join(dir, "pic.png.json")
	testsupport.WriteBytes(t, img, testsupport.JPEGBytes)
	testsupport.WriteSidecar(t, json, "pic.png", 0)

	restore := fileutil.SetRenameHook(func(src, dst string) error {
		if src == img {
			return errors.New("injected")
		}
		return os.Rename(src, dst)
	})
	defer restore()

	pairs := newPairs(t, [2]string{img, json})
	outcomes := extfix.NewCorrector(nil, logging.NewNop()).Correct(pairs)

	if outcomes[0].Status != extfix.StatusMediaFailed {
		t.Fatalf("status = %s", outcomes[0].Status)
	}
	testsupport.AssertExists(t, img)
	testsupport.AssertExists(t, json)
	if p, ok := pairs.Lookup(img); !ok || p.Sidecar.Path != json {
		t.Fatalf("pair changed: %+v", p)
	}
	if titleOf(t, json) != "pic.png" {
		t.Fatal("title changed after failed rename")
	}
}

func TestCorrectSidecarRenameFailureKeepsMediaRename(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "pic.png")
	json := filepath.Join(dir, "pic.png.json")
	testsupport.WriteBytes(t, img, testsupport.JPEGBytes)
	testsupport.WriteSidecar(t, json, "pic.png", 0)

	restore := fileutil.SetRenameHook(func(src, dst string) error {
		if src == json {
			return errors.New("injected")
		}
		return os.Rename(src, dst)
	})
	defer restore()

	pairs := newPairs(t, [2]string{img, json})
	outcomes := extfix.NewCorrector(nil, logging.NewNop()).Correct(pairs)

	if outcomes[0].Status != extfix.StatusSidecarFailed {
		t.Fatalf("status = %s", outcomes[0].Status)
	}
	newMedia := filepath.Join(dir, "pic.jpg")
	testsupport.AssertExists(t, newMedia)
	testsupport.AssertExists(t, json)
	p, ok := pairs.Lookup(newMedia)
	if !ok || p.Sidecar.Path != json {
		t.Fatalf("expected pair keyed on new media with old sidecar, got %+v (%v)", p, ok)
	}
	if titleOf(t, json) != "pic.png" {
		t.Fatal("title must not change when the sidecar was not renamed")
	}
}

func TestCorrectMalformedSidecarLeavesPairUntouched(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "pic.png")
	json := filepath.Join(dir, "pic.png.json")
	testsupport.WriteBytes(t, img, testsupport.JPEGBytes)
	testsupport.WriteBytes(t, json, []byte("{not json"))

	outcomes := extfix.NewCorrector(nil, logging.NewNop()).Correct(newPairs(t, [2]string{img, json}))
	if outcomes[0].Status != extfix.StatusMalformed || !errors.Is(outcomes[0].Err, media.ErrMalformed) {
		t.Fatalf("unexpected outcome %+v", outcomes[0])
	}
	testsupport.AssertExists(t, img)
	if !strings.HasSuffix(outcomes[0].Pair.Media.Path, "pic.png") {
		t.Fatalf("pair media changed: %s", outcomes[0].Pair.Media.Path)
	}
}

func TestCorrectProcessesPairsInScanOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.heic")
	b := filepath.Join(dir, "a.png")
	testsupport.WriteBytes(t, a, testsupport.JPEGBytes)
	testsupport.WriteBytes(t, b, testsupport.JPEGBytes)
	testsupport.WriteSidecar(t, a+".json", "a.heic", 0)
	testsupport.WriteSidecar(t, b+".json", "a.png", 0)

	pairs := newPairs(t, [2]string{a, a + ".json"}, [2]string{b, b + ".json"})
	extfix.NewCorrector(nil, logging.NewNop()).Correct(pairs)

	if _, ok := pairs.Lookup(filepath.Join(dir, "a.jpg")); !ok {
		t.Fatal("first pair should claim a.jpg")
	}
	if _, ok := pairs.Lookup(filepath.Join(dir, "a_1.jpg")); !ok {
		t.Fatal("second pair should fall back to a_1.jpg")
	}
}
