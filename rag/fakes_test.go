package rag

import (
	"context"
	"strings"

	"github.com/ragshield/ragshield/llm/embedding"
)

// fakeEmbedder maps known texts to fixed vectors. Unknown texts embed to
// the fallback vector so dimension checks still hold.
type fakeEmbedder struct {
	vectors  map[string][]float64
	fallback []float64
	dims     int
	batch    int
	err      error
	calls    int
}

func newFakeEmbedder(dims int) *fakeEmbedder {
	fallback := make([]float64, dims)
	fallback[0] = 1
	return &fakeEmbedder{
		vectors:  make(map[string][]float64),
		fallback: fallback,
		dims:     dims,
		batch:    16,
	}
}

func (f *fakeEmbedder) vectorFor(text string) []float64 {
	if v, ok := f.vectors[strings.TrimSpace(text)]; ok {
		return v
	}
	return f.fallback
}

func (f *fakeEmbedder) Embed(ctx context.Context, req *embedding.Request) (*embedding.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	resp := &embedding.Response{Provider: f.Name(), Model: f.Model()}
	for i, text := range req.Input {
		resp.Embeddings = append(resp.Embeddings, embedding.Data{Index: i, Embedding: f.vectorFor(text)})
	}
	return resp, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vectorFor(query), nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(documents))
	for i, doc := range documents {
		out[i] = f.vectorFor(doc)
	}
	return out, nil
}

func (f *fakeEmbedder) Name() string      { return "fake" }
func (f *fakeEmbedder) Model() string     { return "fake-embed-1" }
func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) MaxBatchSize() int { return f.batch }
