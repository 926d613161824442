// Package metadata stamps the capture date and location recorded in a
// sidecar into its media file, then sets filesystem times on both files.
//
// Tag writing goes through the Writer interface. ExiftoolWriter keeps one
// exiftool process open in stay_open mode; a process must not be shared
// between goroutines, so each apply worker builds its own writer.
package metadata
