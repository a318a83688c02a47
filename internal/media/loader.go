// ABOUTME: Protected media loader - authenticated fetch into a revocable local reference
// ABOUTME: One live reference per loader; stale fetches must never clobber newer state

package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"sync"
)

// State describes what a consumer should display for the current locator.
type State string

const (
	// StateNoImage is the terminal state for a missing locator. No fetch
	// is ever issued.
	StateNoImage State = "no_image"

	// StateLoading means a fetch is in flight for the current locator.
	StateLoading State = "loading"

	// StateReady means a local reference is live and displayable.
	StateReady State = "ready"

	// StateUnavailable is the terminal state for a failed fetch. Distinct
	// from NoImage: there was a locator, it just could not be retrieved.
	StateUnavailable State = "unavailable"
)

// ErrSuperseded is returned when a fetch resolved after a newer Load (or
// Close) made its result irrelevant. The caller holds nothing.
var ErrSuperseded = errors.New("load superseded")

// Fetcher is what the loader needs from the API layer.
type Fetcher interface {
	FetchMedia(ctx context.Context, locator string) ([]byte, error)
}

// Ref is a local object reference: a temp file holding fetched bytes,
// usable for display until released. Release is idempotent.
type Ref struct {
	Path string
	once sync.Once
}

// Release removes the backing file. Safe to call more than once.
func (r *Ref) Release() {
	r.once.Do(func() {
		os.Remove(r.Path)
	})
}

// Loader fetches protected media into temp-file-backed references. At
// most one reference is live per loader; loading a new locator releases
// the previous reference first.
type Loader struct {
	fetcher Fetcher
	origin  string
	devHost string
	dir     string
	logger  *slog.Logger

	mu    sync.Mutex
	gen   uint64
	state State
	ref   *Ref
}

// New creates a loader. origin is the active backend origin used to
// rewrite devHost locators; dir is where temp files are staged (empty
// means the system temp directory).
func New(fetcher Fetcher, origin, devHost, dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fetcher: fetcher,
		origin:  origin,
		devHost: devHost,
		dir:     dir,
		logger:  logger.With("component", "media"),
		state:   StateNoImage,
	}
}

// State returns the loader's current display state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Load fetches the given locator and returns a live reference. An empty
// locator is the NoImage terminal state with zero network calls.
//
// Any previously live reference is released before the new fetch starts.
// If a newer Load or Close happens while the fetch is in flight, the
// resolved result is discarded with ErrSuperseded instead of overwriting
// the newer state.
func (l *Loader) Load(ctx context.Context, locator string) (*Ref, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.releaseLocked()

	if locator == "" {
		l.state = StateNoImage
		l.mu.Unlock()
		return nil, nil
	}
	l.state = StateLoading
	l.mu.Unlock()

	data, fetchErr := l.fetcher.FetchMedia(ctx, l.rewrite(locator))

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		l.logger.Debug("discarding superseded fetch", "locator", locator)
		return nil, ErrSuperseded
	}

	if fetchErr != nil {
		l.state = StateUnavailable
		return nil, fmt.Errorf("fetching media: %w", fetchErr)
	}

	ref, err := l.stage(locator, data)
	if err != nil {
		l.state = StateUnavailable
		return nil, err
	}
	l.ref = ref
	l.state = StateReady
	return ref, nil
}

// Close releases the live reference and invalidates any in-flight fetch.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.releaseLocked()
	l.state = StateNoImage
}

func (l *Loader) releaseLocked() {
	if l.ref != nil {
		l.ref.Release()
		l.ref = nil
	}
}

// stage writes fetched bytes to a temp file, keeping the locator's
// extension so viewers can sniff the type from the name.
func (l *Loader) stage(locator string, data []byte) (*Ref, error) {
	ext := ""
	if u, err := url.Parse(locator); err == nil {
		ext = path.Ext(u.Path)
	}

	f, err := os.CreateTemp(l.dir, "rental-media-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("staging media file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("closing media file: %w", err)
	}
	return &Ref{Path: f.Name()}, nil
}

// rewrite normalizes locators that still point at the development host to
// the active backend origin. Deployment normalization only.
func (l *Loader) rewrite(locator string) string {
	if l.devHost == "" || l.origin == "" {
		return locator
	}
	u, err := url.Parse(locator)
	if err != nil || u.Host != l.devHost {
		return locator
	}
	o, err := url.Parse(l.origin)
	if err != nil {
		return locator
	}
	u.Scheme = o.Scheme
	u.Host = o.Host
	rewritten := u.String()
	l.logger.Debug("rewrote dev-host locator", "from", locator, "to", rewritten)
	return rewritten
}
