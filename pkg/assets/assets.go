// Package assets loads ambient sound files into decoded audio buffers.
//
// Sounds are resolved through the session catalogue, decoded from WAV, and
// converted to the playback format once; repeated loads of the same sound
// return the cached buffer. A Store is safe for concurrent use, which lets
// session preload fetch every referenced sound in parallel.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/session"
)

// Store resolves sound IDs to decoded, format-converted audio buffers.
type Store struct {
	dir    string
	format audio.Format

	mu    sync.Mutex
	cache map[string]*audio.Buffer
}

// NewStore creates a Store reading WAV files from dir and converting them to
// the given playback format.
func NewStore(dir string, format audio.Format) *Store {
	return &Store{
		dir:    dir,
		format: format,
		cache:  make(map[string]*audio.Buffer),
	}
}

// Load returns the decoded buffer for a catalogue sound ID, reading and
// converting the file on first use.
func (s *Store) Load(soundID string) (*audio.Buffer, error) {
	s.mu.Lock()
	if buf, ok := s.cache[soundID]; ok {
		s.mu.Unlock()
		return buf, nil
	}
	s.mu.Unlock()

	sound, ok := session.SoundByID(soundID)
	if !ok {
		return nil, fmt.Errorf("assets: unknown sound %q", soundID)
	}

	path := filepath.Join(s.dir, sound.Filename)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: open %s: %w", sound.Filename, err)
	}
	defer f.Close()

	decoded, err := audio.DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", sound.Filename, err)
	}
	buf, err := audio.Convert(decoded, s.format)
	if err != nil {
		return nil, fmt.Errorf("assets: convert %s: %w", sound.Filename, err)
	}

	s.mu.Lock()
	// A concurrent Load may have won the race; keep the first buffer so
	// callers always share one copy per sound.
	if existing, ok := s.cache[soundID]; ok {
		buf = existing
	} else {
		s.cache[soundID] = buf
	}
	s.mu.Unlock()
	return buf, nil
}

// Evict drops a cached sound, forcing the next Load to reread the file.
func (s *Store) Evict(soundID string) {
	s.mu.Lock()
	delete(s.cache, soundID)
	s.mu.Unlock()
}

// Clear drops every cached sound.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cache = make(map[string]*audio.Buffer)
	s.mu.Unlock()
}
