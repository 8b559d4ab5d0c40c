package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDocument(name string, texts []string, vectors [][]float32) (*core.Document, []*core.Chunk) {
	docID := core.IDFromContent(name)
	doc := &core.Document{
		Id:         docID,
		Name:       name,
		ChunkCount: len(texts),
		InsertedAt: time.Now().UTC(),
	}
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		var vector []float32
		if vectors != nil {
			vector = vectors[i]
		}
		chunks[i] = &core.Chunk{
			DocumentId: docID,
			Ordinal:    i,
			Text:       text,
			Page:       i + 1,
			Vector:     vector,
		}
	}
	return doc, chunks
}

func TestChunkRepositoryRoundTrip(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	doc, chunks := makeDocument("paper.txt",
		[]string{"first chunk", "second chunk"},
		[][]float32{{1, 0}, {0, 1}})

	require.NoError(t, repo.AddDocument(ctx, doc, chunks...))

	retrieved, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "paper.txt", retrieved.Name)
	assert.Equal(t, 2, retrieved.ChunkCount)

	stored, err := repo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "first chunk", stored[0].Text)
	assert.Equal(t, 1, stored[0].Page)
	assert.Equal(t, []float32{1, 0}, stored[0].Vector)
	assert.Equal(t, "second chunk", stored[1].Text)
}

func TestChunkRepositoryReplaceDocument(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	doc, chunks := makeDocument("paper.txt",
		[]string{"one", "two", "three"},
		[][]float32{{1}, {1}, {1}})
	require.NoError(t, repo.AddDocument(ctx, doc, chunks...))

	// Re-add with fewer chunks; stale chunks must disappear
	doc2, chunks2 := makeDocument("paper.txt",
		[]string{"replacement"},
		[][]float32{{1}})
	require.NoError(t, repo.AddDocument(ctx, doc2, chunks2...))

	stored, err := repo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "replacement", stored[0].Text)

	retrieved, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.ChunkCount)
}

func TestChunkRepositoryDelete(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	doc, chunks := makeDocument("paper.txt", []string{"content"}, [][]float32{{1}})
	require.NoError(t, repo.AddDocument(ctx, doc, chunks...))

	require.NoError(t, repo.DeleteDocument(ctx, doc.Id))

	_, err = repo.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	stored, err := repo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Empty(t, stored)

	t.Run("deleting again returns not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteDocument(ctx, doc.Id), storage.ErrNotFound)
	})
}

func TestChunkRepositoryListDocumentsOrdered(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		doc, chunks := makeDocument(name, []string{"text"}, [][]float32{{1}})
		require.NoError(t, repo.AddDocument(ctx, doc, chunks...))
	}

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "alpha", docs[0].Name)
	assert.Equal(t, "bravo", docs[1].Name)
	assert.Equal(t, "charlie", docs[2].Name)
}

func TestChunkRepositorySearchAll(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	docA, chunksA := makeDocument("a",
		[]string{"close match", "weak match"},
		[][]float32{{1, 0}, {0.2, 0}})
	docB, chunksB := makeDocument("b",
		[]string{"medium match"},
		[][]float32{{0.5, 0}})
	require.NoError(t, repo.AddDocument(ctx, docA, chunksA...))
	require.NoError(t, repo.AddDocument(ctx, docB, chunksB...))

	results, err := repo.SearchAll(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "close match", results[0].Text)
	assert.Equal(t, "medium match", results[1].Text)
	assert.Equal(t, "weak match", results[2].Text)
	assert.Equal(t, "a", results[0].DocumentName)

	t.Run("topK caps results", func(t *testing.T) {
		capped, err := repo.SearchAll(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Len(t, capped, 2)
	})

	t.Run("invalid topK", func(t *testing.T) {
		_, err := repo.SearchAll(ctx, []float32{1, 0}, 0)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

func TestChunkRepositorySearchWithin(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	docA, chunksA := makeDocument("a", []string{"from a"}, [][]float32{{1, 0}})
	docB, chunksB := makeDocument("b", []string{"from b"}, [][]float32{{0.9, 0}})
	require.NoError(t, repo.AddDocument(ctx, docA, chunksA...))
	require.NoError(t, repo.AddDocument(ctx, docB, chunksB...))

	results, err := repo.SearchWithin(ctx, []core.ID{docB.Id}, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "from b", results[0].Text)
}

func TestChunkRepositorySearchSkipsUnscorable(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	doc, chunks := makeDocument("a",
		[]string{"no vector", "orthogonal", "match"},
		[][]float32{nil, {0, 1}, {1, 0}})
	require.NoError(t, repo.AddDocument(ctx, doc, chunks...))

	results, err := repo.SearchAll(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match", results[0].Text)
}
