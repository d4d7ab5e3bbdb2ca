package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	failOn string
}

func (s *stubLoader) Supports(source string) bool {
	return strings.HasSuffix(source, ".txt")
}

func (s *stubLoader) Load(ctx context.Context, source string) ([]Document, error) {
	if filepath.Base(source) == s.failOn {
		return nil, errors.New("corrupt file")
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	return []Document{{
		ID:          source,
		SourceID:    filepath.Base(source),
		ContentType: ContentTypeText,
		Content:     string(data),
	}}, nil
}

func TestIngester_IngestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second file"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first file"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.bin"), []byte{0x00}, 0o644))

	in := NewIngester(&stubLoader{}, DefaultIngesterConfig(), nil)
	chunks, err := in.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// Deterministic order: files sorted by path, regardless of load
	// concurrency.
	assert.Equal(t, "a.txt", chunks[0].SourceID)
	assert.Equal(t, "b.txt", chunks[1].SourceID)
	assert.Equal(t, "first file", chunks[0].Text)
}

func TestIngester_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("fine"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("whatever"), 0o644))

	in := NewIngester(&stubLoader{failOn: "bad.txt"}, DefaultIngesterConfig(), nil)
	chunks, err := in.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "good.txt", chunks[0].SourceID)
}

func TestIngester_EmptyDir(t *testing.T) {
	in := NewIngester(&stubLoader{}, DefaultIngesterConfig(), nil)
	_, err := in.IngestDir(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestIngester_ChunksLongDocuments(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("All work and no play makes for dull indexes. ", 60)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long.txt"), []byte(long), 0o644))

	in := NewIngester(&stubLoader{}, DefaultIngesterConfig(), nil)
	chunks, err := in.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), DefaultChunkingConfig().ChunkSize)
	}
}
