// Package report prints matched artifacts.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"broom/internal/cleaner"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")

	AllFormats = []string{
		string(FormatText),
		string(FormatJSON),
		string(FormatYAML),
	}
)

// Record is one reported artifact.
type Record struct {
	Categories []string `json:"categories"     yaml:"categories"`
	Path       string   `json:"path"           yaml:"path"`
	Dir        bool     `json:"dir"            yaml:"dir"`
	Size       *int64   `json:"size,omitempty" yaml:"size,omitempty"`
}

// NewRecord builds the record for an artifact. size is nil when the artifact
// was not measured.
func NewRecord(flag cleaner.Flag, path string, dir bool, size *int64) Record {
	return Record{
		Categories: flag.Names(),
		Path:       path,
		Dir:        dir,
		Size:       size,
	}
}

// Writer emits records in one format.
type Writer interface {
	Write(r Record) error
	Close() error
}

// GetFormat validates a format name.
func GetFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	if slices.Contains(AllFormats, string(f)) {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// NewWriter returns a Writer for format on w.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatText:
		return &textWriter{w: w}, nil
	case FormatJSON:
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlWriter{enc: enc}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// textWriter prints "<categories>: <path>", categories joined by "|".
type textWriter struct {
	w io.Writer
}

func (t *textWriter) Write(r Record) error {
	_, err := fmt.Fprintf(t.w, "%s: %s\n", strings.Join(r.Categories, "|"), r.Path)
	return err
}

func (t *textWriter) Close() error { return nil }

// jsonWriter prints one JSON object per line.
type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) Write(r Record) error {
	if err := j.enc.Encode(r); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func (j *jsonWriter) Close() error { return nil }

// yamlWriter prints one YAML document per record.
type yamlWriter struct {
	enc *yaml.Encoder
}

func (y *yamlWriter) Write(r Record) error {
	if err := y.enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

func (y *yamlWriter) Close() error {
	if err := y.enc.Close(); err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}
	return nil
}
