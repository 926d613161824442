package extfix

import (
	"errors"
	"strings"

	"github.com/h2non/filetype"
)

// ErrUnrecognized reports content no matcher claimed.
var ErrUnrecognized = errors.New("unrecognized content type")

// Type is a detected content type.
type Type struct {
	// Extension is lower case without the leading dot.
	Extension string
	MIME      string
}

// Detector sniffs the content type of the file at path.
type Detector interface {
	Detect(path string) (Type, error)
}

// FiletypeDetector matches magic numbers with h2non/filetype. It reads only
// the file header.
type FiletypeDetector struct{}

func (FiletypeDetector) Detect(path string) (Type, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return Type{}, err
	}
	if kind == filetype.Unknown || kind.Extension == "" {
		return Type{}, ErrUnrecognized
	}
	return Type{Extension: strings.ToLower(kind.Extension), MIME: kind.MIME.Value}, nil
}
