// Package cache wraps a tts.Provider with a persistent synthesis cache.
//
// Utterances in a meditation session repeat across runs, so synthesized audio
// is keyed by "{provider}:{voiceID}:{text}" and stored in BadgerDB. A cache
// hit skips the network entirely; a cache write failure is logged and
// otherwise ignored, since playback must not depend on the cache being
// writable.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring the cache Provider.
type Option func(*Provider)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.log = logger }
}

// WithInMemory runs the cache database in memory-only mode. Useful for tests.
func WithInMemory() Option {
	return func(p *Provider) { p.inMemory = true }
}

// Provider decorates another tts.Provider with a BadgerDB synthesis cache.
type Provider struct {
	inner tts.Provider
	name  string
	db    *badger.DB
	log   *slog.Logger

	inMemory bool
	dir      string
}

// New creates a cache Provider in front of inner. name identifies the inner
// provider in cache keys, so distinct providers never share entries. dir is
// the cache database directory; it is created if missing.
func New(inner tts.Provider, name, dir string, opts ...Option) (*Provider, error) {
	if inner == nil {
		return nil, fmt.Errorf("cache: inner provider must not be nil")
	}
	p := &Provider{
		inner: inner,
		name:  name,
		dir:   dir,
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	if !p.inMemory && p.dir == "" {
		return nil, fmt.Errorf("cache: dir is required for on-disk mode")
	}

	dbOpts := badger.DefaultOptions(p.dir).WithLogger(badgerLogger{log: p.log})
	if p.inMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	p.db = db
	return p, nil
}

// PurgeDir deletes every entry in the on-disk cache at dir without
// constructing a provider, returning the number of entries removed. Used by
// maintenance commands, which should not need provider credentials to clear
// a cache.
func PurgeDir(dir string) (int, error) {
	if dir == "" {
		return 0, fmt.Errorf("cache: dir is required")
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(badgerLogger{log: slog.Default()}))
	if err != nil {
		return 0, fmt.Errorf("cache: open database: %w", err)
	}
	defer db.Close()

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache: count entries: %w", err)
	}

	if err := db.DropAll(); err != nil {
		return 0, fmt.Errorf("cache: drop entries: %w", err)
	}
	return count, nil
}

// Key returns the cache key for a (voice, text) pair under this provider.
func (p *Provider) Key(voiceID, text string) []byte {
	return []byte(p.name + ":" + voiceID + ":" + text)
}

// Format reports the inner provider's PCM format. Cached audio was produced
// by the same provider, so the format matches.
func (p *Provider) Format() audio.Format {
	return p.inner.Format()
}

// Synthesize returns cached audio when present, otherwise delegates to the
// inner provider and stores the result.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	key := p.Key(voiceID, text)

	var cached []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		cached, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		p.log.Warn("synthesis cache read failed", "error", err)
	}

	pcm, err := p.inner.Synthesize(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}

	if err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, pcm)
	}); err != nil {
		p.log.Warn("synthesis cache write failed", "error", err)
	}
	return pcm, nil
}

// SynthesizeStream delegates to the inner provider without caching. A cached
// utterance offers nothing to stream-ahead playback that Synthesize does not.
func (p *Provider) SynthesizeStream(ctx context.Context, text, voiceID string) (<-chan []byte, error) {
	return p.inner.SynthesizeStream(ctx, text, voiceID)
}

// ListVoices delegates to the inner provider.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return p.inner.ListVoices(ctx)
}

// Purge drops every cached entry for this provider.
func (p *Provider) Purge() (int, error) {
	prefix := []byte(p.name + ":")

	var keys [][]byte
	err := p.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache: scan entries: %w", err)
	}

	wb := p.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("cache: purge: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("cache: purge: %w", err)
	}
	return len(keys), nil
}

// Close closes the cache database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// badgerLogger adapts slog for badger, dropping info and debug output.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Error(fmt.Sprintf(f, v...)) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warn(fmt.Sprintf(f, v...)) }
func (l badgerLogger) Infof(string, ...interface{})        {}
func (l badgerLogger) Debugf(string, ...interface{})       {}
