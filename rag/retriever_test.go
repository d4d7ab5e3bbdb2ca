package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetriever_Retrieve(t *testing.T) {
	emb := newFakeEmbedder(2)
	emb.vectors["Paris is the capital of France."] = []float64{1, 0}
	emb.vectors["Berlin is the capital of Germany."] = []float64{0, 1}
	emb.vectors["capital of France?"] = []float64{0.95, 0.05}

	chunks := []Chunk{
		{ID: "berlin", Text: "Berlin is the capital of Germany."},
		{ID: "paris", Text: "Paris is the capital of France."},
	}
	snap, err := BuildSnapshot(context.Background(), chunks, emb, nil)
	require.NoError(t, err)

	r := NewRetriever(snap, emb, RetrieverConfig{TopK: 1}, nil)
	results, err := r.Retrieve(context.Background(), "capital of France?")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "paris", results[0].Chunk.ID)
}

func TestRetriever_DefaultTopK(t *testing.T) {
	emb := newFakeEmbedder(2)
	snap, err := BuildSnapshot(context.Background(), testChunks(5), emb, nil)
	require.NoError(t, err)

	r := NewRetriever(snap, emb, RetrieverConfig{}, nil)
	results, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

type fakeRetrievalRecorder struct {
	calls int
}

func (f *fakeRetrievalRecorder) RecordRetrieval(elapsed time.Duration) { f.calls++ }

func TestRetriever_RecordsRetrievalMetrics(t *testing.T) {
	emb := newFakeEmbedder(2)
	snap, err := BuildSnapshot(context.Background(), testChunks(3), emb, nil)
	require.NoError(t, err)

	rec := &fakeRetrievalRecorder{}
	r := NewRetriever(snap, emb, RetrieverConfig{}, nil)
	r.SetRecorder(rec)

	_, err = r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)

	// Failed retrievals are not observed.
	emb.err = errors.New("embedding endpoint 503")
	_, err = r.Retrieve(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestRetriever_EmbeddingFailure(t *testing.T) {
	emb := newFakeEmbedder(2)
	snap, err := BuildSnapshot(context.Background(), testChunks(2), emb, nil)
	require.NoError(t, err)

	cause := errors.New("embedding endpoint 503")
	emb.err = cause

	r := NewRetriever(snap, emb, RetrieverConfig{}, nil)
	_, err = r.Retrieve(context.Background(), "query")

	var unavailable *RetrievalUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.ErrorIs(t, err, cause)
}
