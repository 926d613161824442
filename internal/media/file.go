package media

import (
	"path/filepath"
	"strings"
)

// Kind distinguishes still images from video clips.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// SidecarExt is the extension every exported sidecar carries.
const SidecarExt = ".json"

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".tiff": {}, ".tif": {},
	".webp": {}, ".heic": {}, ".heif": {}, ".raw": {}, ".cr2": {}, ".nef": {}, ".arw": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mov": {}, ".mkv": {}, ".wmv": {}, ".flv": {}, ".webm": {},
	".m4v": {}, ".mpg": {}, ".mpeg": {}, ".3gp": {}, ".mts": {}, ".m2ts": {},
}

// KindOfExt classifies a dotted extension, ignoring case.
func KindOfExt(ext string) Kind {
	lower := strings.ToLower(ext)
	if _, ok := imageExtensions[lower]; ok {
		return KindImage
	}
	if _, ok := videoExtensions[lower]; ok {
		return KindVideo
	}
	return KindUnknown
}

// IsMediaExt reports whether ext belongs to the image or video set.
func IsMediaExt(ext string) bool {
	return KindOfExt(ext) != KindUnknown
}

// File is a media file as seen at one point in time.
type File struct {
	Path string
	Dir  string
	Name string
	Stem string
	Ext  string
	Kind Kind
}

// NewFile builds a File for an absolute path. Kind is derived from the
// extension and is KindUnknown for anything outside the media sets.
func NewFile(path string) File {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	return File{
		Path: path,
		Dir:  filepath.Dir(path),
		Name: name,
		Stem: strings.TrimSuffix(name, ext),
		Ext:  ext,
		Kind: KindOfExt(ext),
	}
}

// IsZero reports whether f was never populated.
func (f File) IsZero() bool {
	return f.Path == ""
}

// Sidecar is a JSON metadata file exported next to a media file.
type Sidecar struct {
	Path string
	Dir  string
	Name string
	Stem string
}

// NewSidecar builds a Sidecar for an absolute path. The stem drops only the
// final extension, so "IMG.jpg.json" has stem "IMG.jpg".
func NewSidecar(path string) Sidecar {
	name := filepath.Base(path)
	return Sidecar{
		Path: path,
		Dir:  filepath.Dir(path),
		Name: name,
		Stem: strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

// IsZero reports whether s was never populated.
func (s Sidecar) IsZero() bool {
	return s.Path == ""
}

// SidecarPathFor returns the canonical sidecar location for a media file,
// "<media name>.json" in the same directory.
func SidecarPathFor(f File) string {
	return filepath.Join(f.Dir, f.Name+SidecarExt)
}
