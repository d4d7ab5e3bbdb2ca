package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testChunks(n int) []Chunk {
	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{
			ID:       fmt.Sprintf("chunk-%d", i),
			Text:     fmt.Sprintf("chunk text %d", i),
			SourceID: "corpus.txt",
		}
	}
	return chunks
}

func TestBuildSnapshot(t *testing.T) {
	emb := newFakeEmbedder(4)
	snap, err := BuildSnapshot(context.Background(), testChunks(5), emb, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, snap.Len())
	assert.Equal(t, Identity{Provider: "fake", Model: "fake-embed-1", Dimensions: 4}, snap.Identity())
}

func TestBuildSnapshot_EmptyCorpus(t *testing.T) {
	_, err := BuildSnapshot(context.Background(), nil, newFakeEmbedder(4), nil)
	assert.Error(t, err)
}

func TestBuildSnapshot_EmbedderFailure(t *testing.T) {
	emb := newFakeEmbedder(4)
	emb.err = errors.New("embedding backend down")
	_, err := BuildSnapshot(context.Background(), testChunks(3), emb, nil)
	assert.Error(t, err)
}

func TestBuildSnapshot_BatchingPreservesOrder(t *testing.T) {
	emb := newFakeEmbedder(4)
	emb.batch = 2

	chunks := testChunks(7)
	snap, err := BuildSnapshot(context.Background(), chunks, emb, nil)
	require.NoError(t, err)
	require.Equal(t, 7, snap.Len())

	// Ask for everything at identical scores: insertion order survives.
	results := snap.Search(emb.fallback, 7)
	for i, r := range results {
		assert.Equal(t, chunks[i].ID, r.Chunk.ID)
	}
}

func TestSnapshot_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	emb := newFakeEmbedder(4)

	built, err := BuildSnapshot(context.Background(), testChunks(3), emb, nil)
	require.NoError(t, err)
	require.NoError(t, built.Save(dir))

	loaded, err := LoadSnapshot(dir, IdentityOf(emb))
	require.NoError(t, err)

	assert.Equal(t, built.Len(), loaded.Len())
	assert.Equal(t, built.Identity(), loaded.Identity())

	a := built.Search(emb.fallback, 2)
	b := loaded.Search(emb.fallback, 2)
	assert.Equal(t, a, b)
}

func TestLoadSnapshot_Missing(t *testing.T) {
	_, err := LoadSnapshot(t.TempDir(), Identity{Provider: "fake", Model: "m", Dimensions: 4})
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestLoadSnapshot_IdentityMismatch(t *testing.T) {
	dir := t.TempDir()
	emb := newFakeEmbedder(4)

	built, err := BuildSnapshot(context.Background(), testChunks(2), emb, nil)
	require.NoError(t, err)
	require.NoError(t, built.Save(dir))

	_, err = LoadSnapshot(dir, Identity{Provider: "other", Model: "other-model", Dimensions: 8})
	var mismatch *IdentityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, IdentityOf(emb), mismatch.Stored)
	assert.Equal(t, "other", mismatch.Active.Provider)
}

func TestSnapshot_SearchRanking(t *testing.T) {
	emb := newFakeEmbedder(2)
	emb.vectors["about cats"] = []float64{1, 0}
	emb.vectors["about dogs"] = []float64{0, 1}
	emb.vectors["mostly cats"] = []float64{0.9, 0.1}

	chunks := []Chunk{
		{ID: "dogs", Text: "about dogs"},
		{ID: "cats", Text: "about cats"},
		{ID: "mixed", Text: "mostly cats"},
	}
	snap, err := BuildSnapshot(context.Background(), chunks, emb, nil)
	require.NoError(t, err)

	results := snap.Search([]float64{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "cats", results[0].Chunk.ID)
	assert.Equal(t, "mixed", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)

	// Querying never mutates the snapshot.
	again := snap.Search([]float64{1, 0}, 2)
	assert.Equal(t, results, again)
}

func TestSnapshot_SearchKLargerThanIndex(t *testing.T) {
	emb := newFakeEmbedder(4)
	snap, err := BuildSnapshot(context.Background(), testChunks(2), emb, nil)
	require.NoError(t, err)

	results := snap.Search(emb.fallback, 10)
	assert.Len(t, results, 2)
}

func TestSnapshot_SearchDefaultK(t *testing.T) {
	emb := newFakeEmbedder(4)
	snap, err := BuildSnapshot(context.Background(), testChunks(5), emb, nil)
	require.NoError(t, err)

	results := snap.Search(emb.fallback, 0)
	assert.Len(t, results, DefaultTopK)
}

func TestSnapshot_SearchScoresDescend(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dims := rapid.IntRange(2, 6).Draw(t, "dims")
		n := rapid.IntRange(1, 12).Draw(t, "n")

		chunks := make([]Chunk, n)
		for i := range chunks {
			vec := make([]float64, dims)
			for d := range vec {
				vec[d] = rapid.Float64Range(-1, 1).Draw(t, fmt.Sprintf("v%d_%d", i, d))
			}
			chunks[i] = Chunk{ID: fmt.Sprintf("c%d", i), Embedding: vec}
		}
		snap := &Snapshot{chunks: chunks}

		query := make([]float64, dims)
		for d := range query {
			query[d] = rapid.Float64Range(-1, 1).Draw(t, fmt.Sprintf("q%d", d))
		}

		k := rapid.IntRange(1, n).Draw(t, "k")
		results := snap.Search(query, k)

		if len(results) != k {
			t.Fatalf("got %d results, want %d", len(results), k)
		}
		for i := 1; i < len(results); i++ {
			if results[i-1].Score < results[i].Score {
				t.Fatalf("scores not descending at %d: %v < %v", i, results[i-1].Score, results[i].Score)
			}
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-3, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Zero(t, cosineSimilarity([]float64{1}, []float64{1, 2}))
}
