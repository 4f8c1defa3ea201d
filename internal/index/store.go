package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/doctalk0/doctalk/internal/document"
	"github.com/doctalk0/doctalk/internal/log"
)

// buildLockName is the sidecar file used to serialize builds across
// processes.
const buildLockName = ".build.lock"

// lockRetryDelay is the polling interval while waiting for another
// process to finish building the same folder.
const lockRetryDelay = 250 * time.Millisecond

// Options configures a Store. Zero values fall back to the defaults
// below.
type Options struct {
	ChunkSize    int           // runes per chunk (default 1000)
	ChunkOverlap int           // runes shared by adjacent chunks (default 100)
	Subdir       string        // sidecar directory name (default "vector_store")
	Language     string        // message language, "en" or "ru" (default "en")
	EmbedTimeout time.Duration // per-embedding deadline, 0 disables
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.ChunkOverlap <= 0 {
		o.ChunkOverlap = 100
	}
	if o.Subdir == "" {
		o.Subdir = "vector_store"
	}
	if o.Language == "" {
		o.Language = "en"
	}
	return o
}

// Store manages one Index per knowledge-base folder. Builds for the same
// folder are serialized; builds and lookups for distinct folders do not
// block each other.
type Store struct {
	loader   *document.Loader
	embedder Embedder
	logger   log.Logger
	opts     Options

	mu      sync.Mutex
	indexes map[string]*Index
	builds  map[string]*sync.Mutex
}

// NewStore creates a Store. A nil logger discards output.
func NewStore(loader *document.Loader, embedder Embedder, logger log.Logger, opts Options) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		loader:   loader,
		embedder: embedder,
		logger:   logger.With("component", "index"),
		opts:     opts.withDefaults(),
		indexes:  make(map[string]*Index),
		builds:   make(map[string]*sync.Mutex),
	}
}

// LoadOrBuild makes the folder's index available, building and persisting it
// on first use and reloading the persisted copy afterwards. It reports
// whether the index is ready together with a human-readable status message;
// it never panics and never surfaces an error value, because the message is
// relayed to the end user as-is.
func (s *Store) LoadOrBuild(ctx context.Context, folder string) (bool, string) {
	key, err := filepath.Abs(folder)
	if err != nil {
		key = filepath.Clean(folder)
	}

	lock := s.folderLock(key)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := s.get(key); ok {
		return true, s.message(msgReady)
	}

	info, err := os.Stat(key)
	if err != nil || !info.IsDir() {
		s.logger.Warn("knowledge base folder unavailable", "folder", key, "error", err)
		return false, s.message(msgMissing)
	}

	sidecar := filepath.Join(key, s.opts.Subdir)
	if err := os.MkdirAll(sidecar, 0o750); err != nil {
		s.logger.Error("create sidecar directory", "folder", key, "error", err)
		return false, s.message(msgFailed)
	}

	fl := flock.New(filepath.Join(sidecar, buildLockName))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		s.logger.Error("acquire build lock", "folder", key, "error", err)
		return false, s.message(msgFailed)
	}
	defer fl.Unlock()

	// Another process may have finished the build while we waited.
	if ix, err := load(sidecar); err == nil {
		s.put(key, ix)
		s.logger.Info("index loaded from disk", "folder", key, "chunks", ix.Len())
		return true, s.message(msgLoaded)
	} else if !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("persisted index unreadable, rebuilding", "folder", key, "error", err)
	}

	ix, err := s.build(ctx, key, sidecar)
	if err != nil {
		if errors.Is(err, errNoDocuments) {
			return false, s.message(msgEmpty)
		}
		s.logger.Error("index build failed", "folder", key, "error", err)
		return false, s.message(msgFailed)
	}

	s.put(key, ix)
	return true, s.message(msgIndexed)
}

// Get returns the in-memory index for a folder, if one has been loaded or
// built during this process's lifetime.
func (s *Store) Get(folder string) (*Index, bool) {
	key, err := filepath.Abs(folder)
	if err != nil {
		key = filepath.Clean(folder)
	}
	return s.get(key)
}

// Forget drops the folder's in-memory index. The persisted sidecar is left
// in place; remove the vector_store directory to force a full rebuild.
func (s *Store) Forget(folder string) {
	key, err := filepath.Abs(folder)
	if err != nil {
		key = filepath.Clean(folder)
	}
	s.mu.Lock()
	delete(s.indexes, key)
	s.mu.Unlock()
}

// errNoDocuments marks a folder with nothing indexable in it.
var errNoDocuments = errors.New("no indexable documents")

func (s *Store) build(ctx context.Context, folder, sidecar string) (*Index, error) {
	started := time.Now()

	docs, err := s.loader.LoadFolder(folder)
	if err != nil {
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if len(docs) == 0 {
		return nil, errNoDocuments
	}

	chunks := SplitDocuments(docs, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, errNoDocuments
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d/%d from %s: %w", i+1, len(chunks), chunk.Source, err)
		}
		vectors[i] = vec
	}

	ix, err := New(chunks, vectors)
	if err != nil {
		return nil, err
	}
	if err := ix.save(sidecar); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}

	s.logger.Info("index built",
		"folder", folder,
		"documents", len(docs),
		"chunks", len(chunks),
		"duration", time.Since(started))
	return ix, nil
}

func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	if s.opts.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.EmbedTimeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, text)
}

func (s *Store) get(key string) (*Index, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix, ok := s.indexes[key]
	return ix, ok
}

func (s *Store) put(key string, ix *Index) {
	s.mu.Lock()
	s.indexes[key] = ix
	s.mu.Unlock()
}

func (s *Store) folderLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.builds[key]
	if !ok {
		m = &sync.Mutex{}
		s.builds[key] = m
	}
	return m
}
