package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/barasher/go-exiftool"

	"metafix/internal/media"
	"metafix/internal/sidecar"
)

// DateLayout is the exiftool date format.
const DateLayout = "2006:01:02 15:04:05"

// Tags is what gets written into one media file.
type Tags struct {
	// Date is applied to every standard date tag.
	Date string
	// GPS is nil when the sidecar carries no usable location.
	GPS *sidecar.GeoPoint
	// Video selects the QuickTime coordinate tag in addition to EXIF GPS.
	Video bool
}

// Writer writes tags into the file at path.
type Writer interface {
	Write(path string, tags Tags) error
	Close() error
}

// WriterFactory builds one Writer per worker.
type WriterFactory func() (Writer, error)

// ExiftoolWriter writes tags through a long-lived exiftool process.
type ExiftoolWriter struct {
	et *exiftool.Exiftool
}

// NewExiftoolWriter starts exiftool from binary. File names are passed as
// UTF-8 so non-ASCII names survive on every platform.
func NewExiftoolWriter(binary string) (*ExiftoolWriter, error) {
	opts := []func(*exiftool.Exiftool) error{exiftool.Charset("filename=utf8")}
	if strings.TrimSpace(binary) != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, media.Wrap(media.ErrExternalTool, "metadata", "start exiftool", binary, err)
	}
	return &ExiftoolWriter{et: et}, nil
}

// ExiftoolFactory returns a WriterFactory starting a fresh exiftool per call.
func ExiftoolFactory(binary string) WriterFactory {
	return func() (Writer, error) {
		return NewExiftoolWriter(binary)
	}
}

func (w *ExiftoolWriter) Write(path string, tags Tags) error {
	fm := fileMetadata(path, tags)
	batch := []exiftool.FileMetadata{fm}
	w.et.WriteMetadata(batch)
	if err := batch[0].Err; err != nil {
		return media.Wrap(media.ErrExternalTool, "metadata", "exiftool write", path, err)
	}
	return nil
}

func (w *ExiftoolWriter) Close() error {
	return w.et.Close()
}

func fileMetadata(path string, tags Tags) exiftool.FileMetadata {
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	fm.SetString("AllDates", tags.Date)
	if tags.GPS == nil {
		return fm
	}
	gps := *tags.GPS
	fm.SetString("GPSLatitude", formatCoord(gps.Latitude))
	fm.SetString("GPSLatitudeRef", hemisphere(gps.Latitude, "N", "S"))
	fm.SetString("GPSLongitude", formatCoord(gps.Longitude))
	fm.SetString("GPSLongitudeRef", hemisphere(gps.Longitude, "E", "W"))
	fm.SetString("GPSAltitude", formatCoord(gps.Altitude))
	fm.SetString("GPSAltitudeRef", altitudeRef(gps.Altitude))
	if tags.Video {
		fm.SetString("Keys:GPSCoordinates", fmt.Sprintf("%s, %s, %s",
			formatCoord(gps.Latitude), formatCoord(gps.Longitude), formatCoord(gps.Altitude)))
	}
	return fm
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hemisphere(v float64, positive, negative string) string {
	if v < 0 {
		return negative
	}
	return positive
}

func altitudeRef(alt float64) string {
	if alt < 0 {
		return "Below Sea Level"
	}
	return "Above Sea Level"
}
