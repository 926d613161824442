package metadata

import (
	"testing"

	"metafix/internal/sidecar"
)

func TestFileMetadataDateOnly(t *testing.T) {
	fm := fileMetadata("/a/b.jpg", Tags{Date: "2023:01:01 00:00:00"})
	if fm.File != "/a/b.jpg" {
		t.Fatalf("file = %q", fm.File)
	}
	if got := fm.Fields["AllDates"]; got != "2023:01:01 00:00:00" {
		t.Fatalf("AllDates = %v", got)
	}
	if _, ok := fm.Fields["GPSLatitude"]; ok {
		t.Fatal("GPS tags written without location")
	}
}

func TestFileMetadataGPSForVideo(t *testing.T) {
	gps := sidecar.GeoPoint{Latitude: -33.85, Longitude: -70.5, Altitude: 12.5}
	fm := fileMetadata("/a/clip.mov", Tags{Date: "2023:01:01 00:00:00", GPS: &gps, Video: true})

	want := map[string]string{
		"GPSLatitude":         "-33.85",
		"GPSLatitudeRef":      "S",
		"GPSLongitude":        "-70.5",
		"GPSLongitudeRef":     "W",
		"GPSAltitude":         "12.5",
		"GPSAltitudeRef":      "Above Sea Level",
		"Keys:GPSCoordinates": "-33.85, -70.5, 12.5",
	}
	for key, value := range want {
		if got := fm.Fields[key]; got != value {
			t.Errorf("%s = %v, want %q", key, got, value)
		}
	}
}

func TestFileMetadataNoQuickTimeTagForImages(t *testing.T) {
	gps := sidecar.GeoPoint{Latitude: 10, Longitude: 20}
	fm := fileMetadata("/a/b.jpg", Tags{Date: "x", GPS: &gps})
	if _, ok := fm.Fields["Keys:GPSCoordinates"]; ok {
		t.Fatal("image should not receive Keys:GPSCoordinates")
	}
	if fm.Fields["GPSLatitudeRef"] != "N" || fm.Fields["GPSLongitudeRef"] != "E" {
		t.Fatalf("unexpected refs %v %v", fm.Fields["GPSLatitudeRef"], fm.Fields["GPSLongitudeRef"])
	}
}
