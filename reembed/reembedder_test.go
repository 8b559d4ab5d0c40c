package reembed

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/paperit/ai/mock"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/storage"
	"github.com/poiesic/paperit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func seedPaper(t *testing.T, repo storage.ChunkRepository, name string, texts ...string) *core.Document {
	t.Helper()

	docID := core.IDFromContent(name)
	doc := &core.Document{Id: docID, Name: name, InsertedAt: time.Now().UTC()}
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			DocumentId: docID,
			Ordinal:    i,
			Text:       text,
			Vector:     []float32{9, 9}, // stale embedding
		}
	}
	require.NoError(t, repo.AddDocument(context.Background(), doc, chunks...))
	return doc
}

func TestReembedderRun(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	doc := seedPaper(t, repo, "paper-a", "first chunk", "second chunk", "third chunk")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4}
		}
		return vectors, nil
	}

	var output bytes.Buffer
	reembedder := NewReembedder(repo, embedder, testConfig(), &output)
	require.NoError(t, reembedder.Run(ctx))

	chunks, err := repo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		// New vectors are stored normalized
		assert.InDelta(t, 0.6, chunk.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, chunk.Vector[1], 1e-6)
	}

	assert.Contains(t, output.String(), "Reembedding complete")
}

func TestReembedderRunEmptyCorpus(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	var output bytes.Buffer
	reembedder := NewReembedder(repo, mock.NewMockEmbedder(), testConfig(), &output)
	require.NoError(t, reembedder.Run(context.Background()))

	assert.Contains(t, output.String(), "No papers found")
}

func TestReembedderRetriesTransientFailures(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	seedPaper(t, repo, "paper-a", "only chunk")

	attempts := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("transient failure")
		}
		return [][]float32{{1, 0}}, nil
	}

	var output bytes.Buffer
	reembedder := NewReembedder(repo, embedder, testConfig(), &output)
	require.NoError(t, reembedder.Run(context.Background()))
	assert.Equal(t, 2, attempts)
}

func TestReembedderPersistentFailure(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	doc := seedPaper(t, repo, "paper-a", "only chunk")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("service down")
	}

	var output bytes.Buffer
	reembedder := NewReembedder(repo, embedder, testConfig(), &output)
	err = reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paper-a")

	// The stored vectors are untouched after a failed run
	chunks, err := repo.GetChunks(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 9}, chunks[0].Vector)
}
