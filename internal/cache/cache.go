// Package cache is the content-addressed segment cache. Keys are derived
// from (source id, rounded time range, overlay text hash); entries are plain
// files whose eviction metadata is the filesystem stat itself.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

const (
	// DefaultMaxAge is how old an entry may grow before the age pass
	// removes it.
	DefaultMaxAge = 24 * time.Hour

	// DefaultMaxBytes is the size ceiling the size-pressure pass enforces.
	DefaultMaxBytes = int64(2 << 30)

	entryExt = ".mp4"
)

// Key derives the deterministic cache key for a segment request. Times are
// rounded to two decimals so 1.000 and 1.0 collide; overlay text is hashed
// so any text change (including to or from empty) changes the key while
// unrelated metadata does not.
func Key(sourceID string, start, end float64, overlayText string) string {
	sum := sha256.Sum256([]byte(overlayText))
	return fmt.Sprintf("%s_%.2f-%.2f_%s",
		sourceID,
		util.RoundSeconds(start),
		util.RoundSeconds(end),
		hex.EncodeToString(sum[:])[:12],
	)
}

// Store is an on-disk cache of processed segment files.
type Store struct {
	logger   zerolog.Logger
	dir      string
	maxAge   time.Duration
	maxBytes int64
}

// Options tunes eviction. Zero values fall back to the defaults.
type Options struct {
	MaxAge   time.Duration
	MaxBytes int64
}

// New creates a cache store rooted at dir.
func New(logger zerolog.Logger, dir string, opts Options) (*Store, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Store{
		logger:   logger.With().Str("component", "cache").Logger(),
		dir:      dir,
		maxAge:   maxAge,
		maxBytes: maxBytes,
	}, nil
}

// Path returns the canonical file path for a key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+entryExt)
}

// Lookup reports whether the key has a cached artifact.
func (s *Store) Lookup(key string) (string, bool) {
	path := s.Path(key)
	if util.FileExists(path) {
		return path, true
	}
	return "", false
}

// Put promotes a temp file into the cache under the canonical key-derived
// name. The rename is atomic, so a partial artifact never appears at the
// final path. Same key means same inputs, so overwrites are idempotent.
func (s *Store) Put(key, tempPath string) (string, error) {
	final := s.Path(key)

	if err := os.Rename(tempPath, final); err != nil {
		// Rename fails across filesystems; fall back to copy+rename
		// inside the cache dir.
		if err := s.copyIn(tempPath, final); err != nil {
			return "", &media.CacheWriteError{Key: key, Err: err}
		}
		os.Remove(tempPath)
	}

	s.logger.Debug().Str("key", key).Msg("cached segment artifact")
	return final, nil
}

func (s *Store) copyIn(src, final string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(final, data, 0644)
}

// Invalidate deletes every entry whose key begins with the given source id.
// Used when video-level metadata that affects all segments changes.
func (s *Store) Invalidate(sourceIDPrefix string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(entry.Name(), sourceIDPrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, err
		}
		removed++
	}

	s.logger.Info().Str("prefix", sourceIDPrefix).Int("removed", removed).Msg("cache invalidated")
	return removed, nil
}

// Evict runs the two eviction passes: age first, then size pressure. Under
// size pressure files go strictly oldest-modified-first; reads do not
// protect an entry. Files vanishing mid-pass are treated as already evicted.
func (s *Store) Evict() (int, error) {
	removed, err := s.evictByAge()
	if err != nil {
		return removed, err
	}

	sizeRemoved, err := s.evictBySize()
	return removed + sizeRemoved, err
}

type statEntry struct {
	path  string
	size  int64
	mtime time.Time
}

func (s *Store) list() ([]statEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	stats := make([]statEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		stats = append(stats, statEntry{
			path:  filepath.Join(s.dir, entry.Name()),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
	}
	return stats, nil
}

func (s *Store) evictByAge() (int, error) {
	stats, err := s.list()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, st := range stats {
		if st.mtime.After(cutoff) {
			continue
		}
		if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("evicted aged cache entries")
	}
	return removed, nil
}

func (s *Store) evictBySize() (int, error) {
	stats, err := s.list()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, st := range stats {
		total += st.size
	}
	if total <= s.maxBytes {
		return 0, nil
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].mtime.Before(stats[j].mtime) })

	removed := 0
	for _, st := range stats {
		if total <= s.maxBytes {
			break
		}
		if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		total -= st.size
		removed++
	}

	s.logger.Info().Int("removed", removed).Int64("bytes", total).Msg("evicted cache entries under size pressure")
	return removed, nil
}
