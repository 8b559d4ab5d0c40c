package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/paperit/ai/mock"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/keyword"
	"github.com/poiesic/paperit/storage"
	"github.com/poiesic/paperit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addPaper stores a document whose chunks carry the given vectors and texts,
// and mirrors it into the keyword store.
func addPaper(t *testing.T, repo storage.ChunkRepository, keywords *keyword.Store, name string, texts []string, vectors [][]float32) *core.Document {
	t.Helper()

	docID := core.IDFromContent(name)
	doc := &core.Document{
		Id:         docID,
		Name:       name,
		ChunkCount: len(texts),
		InsertedAt: time.Now().UTC(),
	}
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			DocumentId: docID,
			Ordinal:    i,
			Text:       text,
			Vector:     vectors[i],
		}
	}
	require.NoError(t, repo.AddDocument(context.Background(), doc, chunks...))
	require.True(t, keywords.IndexChunks(docID, name, chunks))
	return doc
}

func newTestRouter(t *testing.T) (*Router, storage.ChunkRepository, *keyword.Store, *mock.MockEmbedder, *mock.MockGenerator) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	generator := mock.NewMockGenerator()
	provider := mock.NewMockProviderWithServices(embedder, generator)
	keywords := keyword.NewStore()

	router, err := NewRouter(repo, keywords, provider, WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(router.Release)

	return router, repo, keywords, embedder, generator
}

func TestNewRouter(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	provider := mock.NewMockProvider()
	keywords := keyword.NewStore()

	t.Run("valid configuration", func(t *testing.T) {
		router, err := NewRouter(repo, keywords, provider)
		require.NoError(t, err)
		assert.NotNil(t, router)
		router.Release()
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewRouter(nil, keywords, provider)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil keyword store", func(t *testing.T) {
		_, err := NewRouter(repo, nil, provider)
		assert.Equal(t, ErrKeywordStoreRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewRouter(repo, keywords, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestQueryEmptyCorpus(t *testing.T) {
	router, _, _, _, _ := newTestRouter(t)

	_, err := router.Query(context.Background(), "what is attention?")
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)
}

func TestQueryStandardStrategy(t *testing.T) {
	router, repo, keywords, embedder, generator := newTestRouter(t)

	addPaper(t, repo, keywords, "attention.txt",
		[]string{"attention weighs token interactions", "positional encodings add order"},
		[][]float32{{1, 0, 0}, {0, 1, 0}})

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "Attention weighs token interactions.", nil
	}

	response, err := router.Query(context.Background(), "what dataset was used?")
	require.NoError(t, err)

	assert.Equal(t, "Attention weighs token interactions.", response.Answer)
	require.NotEmpty(t, response.Sources)
	assert.Equal(t, "attention.txt", response.Sources[0].DocumentName)

	// Trace carries analysis, selection, and synthesis steps in order
	require.Len(t, response.Reasoning, 3)
	assert.Equal(t, "Query Analysis", response.Reasoning[0].Step)
	assert.Equal(t, "Tool Selection", response.Reasoning[1].Step)
	assert.Contains(t, response.Reasoning[1].Description, string(StrategyVectorSearch))
	assert.Equal(t, "Answer Synthesis", response.Reasoning[2].Step)
}

func TestQueryStandardStrategyDegradesOnSynthesisFailure(t *testing.T) {
	router, repo, keywords, embedder, generator := newTestRouter(t)

	addPaper(t, repo, keywords, "paper.txt",
		[]string{"some content"},
		[][]float32{{1, 0, 0}})

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}

	response, err := router.Query(context.Background(), "what dataset was used?")
	require.NoError(t, err)
	assert.Contains(t, response.Answer, "Query failed")
	assert.Contains(t, response.Answer, "model unavailable")
	assert.Len(t, response.Reasoning, 3)
}

func TestQueryInsufficientPapersForComparison(t *testing.T) {
	router, repo, keywords, _, _ := newTestRouter(t)

	addPaper(t, repo, keywords, "only.txt",
		[]string{"a single paper"},
		[][]float32{{1, 0, 0}})

	response, err := router.Query(context.Background(), "compare the approaches")
	require.NoError(t, err)
	assert.Equal(t, insufficientPapersMessage, response.Answer)
}

func TestQueryComparisonEndToEnd(t *testing.T) {
	router, repo, keywords, embedder, generator := newTestRouter(t)

	addPaper(t, repo, keywords, "paper-a",
		[]string{"gradient descent converges under convexity"},
		[][]float32{{1, 0, 0}})
	addPaper(t, repo, keywords, "paper-b",
		[]string{"gradient descent diverges without convexity"},
		[][]float32{{0.9, 0.1, 0}})

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "Both papers study convergence; they disagree on convexity.", nil
	}

	response, err := router.Query(context.Background(), "compare convergence across papers")
	require.NoError(t, err)

	assert.Contains(t, response.Answer, "paper-a")
	assert.Contains(t, response.Answer, "paper-b")
	assert.Contains(t, response.Answer, "=== SYNTHESIS ===")
	assert.Contains(t, response.Reasoning[1].Description, string(StrategyComparison))
}

func TestQueryHybridStrategy(t *testing.T) {
	router, repo, keywords, embedder, _ := newTestRouter(t)

	addPaper(t, repo, keywords, "bert-paper",
		[]string{"BERT uses bidirectional transformers", "fine-tuning adapts BERT to tasks"},
		[][]float32{{1, 0, 0}, {0.5, 0.5, 0}})

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	response, err := router.Query(context.Background(), "find mentions of BERT")
	require.NoError(t, err)

	assert.Contains(t, response.Answer, "Hybrid search results for: find mentions of BERT")
	assert.Contains(t, response.Answer, "[Score:")
	assert.Contains(t, response.Reasoning[1].Description, string(StrategyHybrid))
}
