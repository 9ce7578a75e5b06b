package session

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML session document at path and returns a validated
// [Session]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("session: open %q: %w", path, err)
	}
	defer f.Close()

	s, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("session: parse %q: %w", path, err)
	}
	return s, nil
}

// LoadFromReader decodes a YAML session document from r and validates the
// result. Unknown fields are rejected so that typos in hand-edited documents
// surface as errors rather than silently dropped timeline items.
func LoadFromReader(r io.Reader) (*Session, error) {
	s := &Session{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("session: decode yaml: %w", err)
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes s as a YAML document to path.
func Save(path string, s *Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("session: write %q: %w", path, err)
	}
	return nil
}
