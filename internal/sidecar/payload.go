// Package sidecar reads and rewrites exported JSON sidecars. Only the title is
// ever changed; every other key keeps its position and raw value.
package sidecar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"metafix/internal/fileutil"
	"metafix/internal/media"
)

const titleKey = "title"

// Payload is a sidecar's top-level object with key order preserved.
type Payload struct {
	keys   []string
	fields map[string]json.RawMessage
}

// Load reads and parses the sidecar at path.
func Load(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, media.Wrap(media.ErrIO, "sidecar", "read", path, err)
	}
	payload, err := Parse(data)
	if err != nil {
		return nil, media.Wrap(media.ErrMalformed, "sidecar", "parse", path, err)
	}
	return payload, nil
}

// Parse decodes a JSON object. Anything other than a single object is an
// error.
func Parse(data []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("top-level value is not an object")
	}

	p := &Payload{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		if _, seen := p.fields[key]; !seen {
			p.keys = append(p.keys, key)
		}
		p.fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after object")
	}
	return p, nil
}

// Title returns the title string, or "" when absent or not a string.
func (p *Payload) Title() string {
	var title string
	if raw, ok := p.fields[titleKey]; ok {
		_ = json.Unmarshal(raw, &title)
	}
	return title
}

// SetTitle replaces the title, appending the key when it was missing.
func (p *Payload) SetTitle(title string) error {
	raw, err := encode(title)
	if err != nil {
		return err
	}
	if _, ok := p.fields[titleKey]; !ok {
		p.keys = append(p.keys, titleKey)
	}
	p.fields[titleKey] = raw
	return nil
}

// Marshal renders the payload with two-space indentation. Non-ASCII text is
// written as-is.
func (p *Payload) Marshal() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		encodedKey, err := encode(key)
		if err != nil {
			return nil, err
		}
		compact.Write(encodedKey)
		compact.WriteByte(':')
		compact.Write(p.fields[key])
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Save writes the payload to path atomically.
func (p *Payload) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return media.Wrap(media.ErrMalformed, "sidecar", "encode", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return media.Wrap(media.ErrIO, "sidecar", "write", path, err)
	}
	return nil
}

// CaptureTime returns the capture instant. The source is photoTakenTime
// when it carries a timestamp key, otherwise creationTime. ok is false when
// neither has one, or when the chosen value is zero or not a number; the
// other field is never consulted in that case.
func (p *Payload) CaptureTime() (time.Time, bool) {
	raw, ok := p.timestampField("photoTakenTime")
	if !ok {
		raw, ok = p.timestampField("creationTime")
	}
	if !ok {
		return time.Time{}, false
	}
	seconds, ok := parseSeconds(raw)
	if !ok || seconds == 0 {
		return time.Time{}, false
	}
	whole := int64(seconds)
	nanos := int64((seconds - float64(whole)) * float64(time.Second))
	return time.Unix(whole, nanos), true
}

// timestampField returns the raw "timestamp" member of the object under key.
func (p *Payload) timestampField(key string) (json.RawMessage, bool) {
	raw, ok := p.fields[key]
	if !ok {
		return nil, false
	}
	var holder map[string]json.RawMessage
	if err := json.Unmarshal(raw, &holder); err != nil {
		return nil, false
	}
	ts, ok := holder["timestamp"]
	return ts, ok
}

func parseSeconds(raw json.RawMessage) (float64, bool) {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return seconds, true
}

// GeoPoint is a latitude/longitude/altitude triple.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Location returns the first geolocation with a non-zero latitude, checking
// geoDataExif before geoData.
func (p *Payload) Location() (GeoPoint, bool) {
	for _, key := range []string{"geoDataExif", "geoData"} {
		raw, ok := p.fields[key]
		if !ok {
			continue
		}
		var point GeoPoint
		if err := json.Unmarshal(raw, &point); err != nil {
			continue
		}
		if point.Latitude != 0 {
			return point, true
		}
	}
	return GeoPoint{}, false
}

func encode(value string) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
