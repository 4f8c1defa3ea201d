package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// indexFileName is the persisted index inside the sidecar directory.
const indexFileName = "index.gob"

// fileVersion guards the on-disk layout. A persisted index with a different
// version is treated as unreadable and rebuilt.
const fileVersion = 1

// Index is a searchable set of embedded chunks. It is immutable after
// construction, so any number of goroutines may call Search concurrently.
type Index struct {
	chunks  []Chunk
	vectors [][]float32
}

// New constructs an Index from parallel chunk and vector slices.
func New(chunks []Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	return &Index{chunks: chunks, vectors: vectors}, nil
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Search returns the k chunks most similar to the query vector, ordered by
// descending similarity. Fewer than k results are returned when the index
// holds fewer chunks. The scan is exhaustive; folder-sized corpora stay well
// below the point where an approximate structure would pay for itself.
func (ix *Index) Search(query []float32, k int) []Scored {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil
	}

	scored := make([]Scored, len(ix.chunks))
	for i, vec := range ix.vectors {
		scored[i] = Scored{Chunk: ix.chunks[i], Similarity: Cosine(query, vec)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// indexFile is the gob wire form of an Index.
type indexFile struct {
	Version int
	Chunks  []Chunk
	Vectors [][]float32
}

// save writes the index to dir/index.gob atomically: the encoded file lands
// under a temporary name first and is renamed into place, so a concurrent
// reader sees either the previous index or the complete new one.
func (ix *Index) save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	path := filepath.Join(dir, indexFileName)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(indexFile{Version: fileVersion, Chunks: ix.chunks, Vectors: ix.vectors}); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

// load reads a persisted index from dir/index.gob. It returns os.ErrNotExist
// (wrapped) when no index has been persisted yet.
func load(dir string) (*Index, error) {
	path := filepath.Join(dir, indexFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode index file: %w", err)
	}
	if file.Version != fileVersion {
		return nil, fmt.Errorf("index file version %d, want %d", file.Version, fileVersion)
	}
	if len(file.Chunks) != len(file.Vectors) {
		return nil, fmt.Errorf("index file holds %d chunks but %d vectors", len(file.Chunks), len(file.Vectors))
	}
	return &Index{chunks: file.Chunks, vectors: file.Vectors}, nil
}
