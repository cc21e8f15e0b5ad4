package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// URLResolver is what the store needs from a resolver chain.
type URLResolver interface {
	ResolveURL(ctx context.Context, sourceID string) (string, error)
}

// Store keeps one full-resolution copy per source id. Fetching is
// minutes-scale and happens at most once per source; every later segment
// request reuses the local copy.
type Store struct {
	logger     zerolog.Logger
	dir        string
	ytdlpPath  string // empty when yt-dlp is unavailable
	resolver   URLResolver
	httpClient *http.Client

	mu      sync.Mutex
	inQueue map[string]*sync.Mutex // per-source fetch locks
}

// NewStore creates a full-copy store rooted at dir. ytdlpPath may name a
// yt-dlp binary; when it resolves, server-side fetches prefer it over the
// resolver chain.
func NewStore(logger zerolog.Logger, dir, ytdlpPath string, resolver URLResolver) (*Store, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create source dir: %w", err)
	}

	resolved := ""
	if ytdlpPath != "" {
		if p, err := exec.LookPath(ytdlpPath); err == nil {
			resolved = p
		}
	}

	return &Store{
		logger:     logger.With().Str("component", "source").Logger(),
		dir:        dir,
		ytdlpPath:  resolved,
		resolver:   resolver,
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		inQueue:    make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the canonical full-copy path for a source.
func (s *Store) Path(sourceID string) string {
	return filepath.Join(s.dir, sourceID+".mp4")
}

// Cached reports whether a full copy is already on disk.
func (s *Store) Cached(sourceID string) bool {
	return util.FileExists(s.Path(sourceID))
}

func (s *Store) fetchLock(sourceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.inQueue[sourceID]
	if !ok {
		l = &sync.Mutex{}
		s.inQueue[sourceID] = l
	}
	return l
}

// Ensure returns the local full copy, fetching it first when absent. The
// per-source lock prevents duplicate concurrent downloads of one source.
// onProgress (optional) receives the download fraction in [0,1].
func (s *Store) Ensure(ctx context.Context, sourceID string, onProgress func(float64)) (string, error) {
	lock := s.fetchLock(sourceID)
	lock.Lock()
	defer lock.Unlock()

	path := s.Path(sourceID)
	if util.FileExists(path) {
		if onProgress != nil {
			onProgress(1)
		}
		return path, nil
	}

	s.logger.Info().Str("source", sourceID).Msg("fetching full copy")

	if s.ytdlpPath != "" {
		if err := s.fetchYtDlp(ctx, sourceID, path); err == nil {
			if onProgress != nil {
				onProgress(1)
			}
			return path, nil
		} else {
			s.logger.Warn().Str("source", sourceID).Err(err).Msg("yt-dlp fetch failed, trying resolver chain")
		}
	}

	url, err := s.resolver.ResolveURL(ctx, sourceID)
	if err != nil {
		return "", err
	}

	if err := s.Download(ctx, url, path, onProgress); err != nil {
		return "", &media.FetchError{SourceID: sourceID, Err: err}
	}
	return path, nil
}

func (s *Store) fetchYtDlp(ctx context.Context, sourceID, dest string) error {
	args := []string{
		"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/b",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"-o", dest,
		"https://www.youtube.com/watch?v=" + sourceID,
	}

	cmd := exec.CommandContext(ctx, s.ytdlpPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		util.CleanupFiles(dest)
		return fmt.Errorf("yt-dlp: %w: %s", err, firstLine(out))
	}
	return nil
}

// Download streams url into dest via a temp file, reporting the fraction
// downloaded when the size is known.
func (s *Store) Download(ctx context.Context, url, dest string, onProgress func(float64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".dl-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	reader := io.Reader(resp.Body)
	if onProgress != nil && resp.ContentLength > 0 {
		reader = &progressReader{r: resp.Body, total: resp.ContentLength, report: onProgress}
	}

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, dest)
}

// Remove deletes the full copy for a source, if present.
func (s *Store) Remove(sourceID string) error {
	err := os.Remove(s.Path(sourceID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

type progressReader struct {
	r      io.Reader
	total  int64
	done   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.done += int64(n)
	if n > 0 {
		p.report(float64(p.done) / float64(p.total))
	}
	return n, err
}

func firstLine(out []byte) string {
	for i, b := range out {
		if b == '\n' {
			return string(out[:i])
		}
	}
	return string(out)
}
