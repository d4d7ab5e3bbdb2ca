package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ragshield/ragshield/llm/embedding"
)

// DefaultTopK is the number of chunks returned by Search when the caller
// does not specify one.
const DefaultTopK = 3

// snapshotFileName is the single file a snapshot occupies inside its
// directory.
const snapshotFileName = "snapshot.json"

// Identity pins a snapshot to the embedding space it was built in. Vectors
// from different providers, models or dimensions are not comparable, so a
// snapshot is only usable with the exact identity it was built with.
type Identity struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// IdentityOf derives the Identity of an embedding provider.
func IdentityOf(p embedding.Provider) Identity {
	return Identity{
		Provider:   p.Name(),
		Model:      p.Model(),
		Dimensions: p.Dimensions(),
	}
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s (%d dims)", id.Provider, id.Model, id.Dimensions)
}

// SearchResult is one scored chunk returned by Search.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Snapshot is an immutable in-memory vector index: all chunks with their
// embeddings plus the identity of the embedding space. It is built once,
// persisted as a single JSON file and loaded read-only at serving time.
// Updates are wholesale rebuilds.
type Snapshot struct {
	identity Identity
	chunks   []Chunk
	builtAt  time.Time
}

// snapshotFile is the on-disk representation.
type snapshotFile struct {
	Identity Identity  `json:"identity"`
	BuiltAt  time.Time `json:"built_at"`
	Chunks   []Chunk   `json:"chunks"`
}

// BuildSnapshot embeds all chunks with the given provider and returns an
// immutable snapshot. Chunks are embedded in provider-sized batches, in
// parallel, but the snapshot preserves the input chunk order.
func BuildSnapshot(ctx context.Context, chunks []Chunk, provider embedding.Provider, logger *zap.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("snapshot: no chunks to index")
	}

	identity := IdentityOf(provider)

	out := make([]Chunk, len(chunks))
	copy(out, chunks)

	batchSize := provider.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = 1
	}

	var mu sync.Mutex
	embedded := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(out); start += batchSize {
		end := start + batchSize
		if end > len(out) {
			end = len(out)
		}

		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = out[i].Text
			}

			vectors, err := provider.EmbedDocuments(gctx, texts)
			if err != nil {
				return fmt.Errorf("snapshot: embed batch [%d:%d]: %w", start, end, err)
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("snapshot: provider returned %d vectors for %d inputs", len(vectors), len(texts))
			}

			for i, vec := range vectors {
				if identity.Dimensions > 0 && len(vec) != identity.Dimensions {
					return fmt.Errorf("snapshot: vector dimension %d does not match %s", len(vec), identity)
				}
				out[start+i].Embedding = vec
			}

			mu.Lock()
			embedded += len(texts)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("snapshot built",
		zap.Int("chunks", embedded),
		zap.String("identity", identity.String()))

	return &Snapshot{
		identity: identity,
		chunks:   out,
		builtAt:  time.Now().UTC(),
	}, nil
}

// Save writes the snapshot to dir as a single JSON file, creating dir if
// needed. The write goes through a temp file and rename so a crash never
// leaves a half-written snapshot behind.
func (s *Snapshot) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create %s: %w", dir, err)
	}

	data, err := json.Marshal(snapshotFile{
		Identity: s.identity,
		BuiltAt:  s.builtAt,
		Chunks:   s.chunks,
	})
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}

	path := filepath.Join(dir, snapshotFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from dir and verifies it was built with
// the given embedding identity. A missing snapshot returns
// ErrIndexNotFound; an identity mismatch returns IdentityMismatchError.
// Both are meant to fail startup, not be retried.
func LoadSnapshot(dir string, active Identity) (*Snapshot, error) {
	path := filepath.Join(dir, snapshotFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", path, err)
	}

	if file.Identity != active {
		return nil, &IdentityMismatchError{Stored: file.Identity, Active: active}
	}

	return &Snapshot{
		identity: file.Identity,
		chunks:   file.Chunks,
		builtAt:  file.BuiltAt,
	}, nil
}

// Identity returns the embedding identity the snapshot was built with.
func (s *Snapshot) Identity() Identity { return s.identity }

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int { return len(s.chunks) }

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Search returns the k chunks most similar to the query vector by cosine
// similarity, best first. Ties keep insertion order. k <= 0 uses
// DefaultTopK; k larger than the index returns everything.
func (s *Snapshot) Search(query []float64, k int) []SearchResult {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}

	results := make([]SearchResult, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, SearchResult{
			Chunk: c,
			Score: cosineSimilarity(query, c.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results[:k]
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is zero or the lengths differ.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
