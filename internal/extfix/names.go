package extfix

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"metafix/internal/fileutil"
	"metafix/internal/media"
)

var collisionSuffix = regexp.MustCompile(`_\d{1,2}$`)

// aliases folds spellings of the same format onto one key.
var aliases = map[string]string{
	".jpeg": ".jpg",
	".tiff": ".tif",
	".heif": ".heic",
}

// preferred is the spelling used when renaming to a detected type.
var preferred = map[string]string{
	".jpeg": ".jpg",
	".heif": ".heic",
}

// tiffRaw lists camera raw formats built on TIFF containers; a TIFF
// detection on them is expected.
var tiffRaw = map[string]struct{}{
	".nef": {}, ".arw": {}, ".cr2": {}, ".raw": {},
}

// Normalize lower-cases a dotted extension and folds aliases.
func Normalize(ext string) string {
	ext = strings.ToLower(ext)
	if folded, ok := aliases[ext]; ok {
		return folded
	}
	return ext
}

// Mismatch reports whether a file with extension current holds content of
// the detected type, both dotted.
func Mismatch(current, detected string) bool {
	cur, det := Normalize(current), Normalize(detected)
	if cur == det {
		return false
	}
	if _, raw := tiffRaw[cur]; raw && det == ".tif" {
		return false
	}
	return true
}

// TargetExt returns the extension a mismatched file is renamed to.
func TargetExt(detected string) string {
	ext := strings.ToLower(detected)
	if p, ok := preferred[ext]; ok {
		return p
	}
	return ext
}

// FreeName returns the first name in dir for stem+ext such that neither the
// media path nor its sidecar path exists. On collision a trailing _N on the
// candidate stem is replaced, or one is appended, counting up from 1.
func FreeName(dir, stem, ext string) string {
	taken := func(name string) bool {
		p := filepath.Join(dir, name)
		return fileutil.Exists(p) || fileutil.Exists(p+media.SidecarExt)
	}

	name := stem + ext
	candidate := stem
	for n := 1; taken(name); n++ {
		suffix := "_" + strconv.Itoa(n)
		if collisionSuffix.MatchString(candidate) {
			candidate = collisionSuffix.ReplaceAllString(candidate, suffix)
		} else {
			candidate += suffix
		}
		name = candidate + ext
	}
	return name
}
