package keyword

import (
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/paperit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunksFromTexts(docID core.ID, texts ...string) []*core.Chunk {
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{DocumentId: docID, Ordinal: i, Text: text}
	}
	return chunks
}

func TestStoreIndexAndSearch(t *testing.T) {
	store := NewStore()
	docID := core.IDFromContent("paper-a")

	indexed := store.IndexChunks(docID, "paper-a", chunksFromTexts(docID,
		"gradient descent converges under convexity assumptions",
		"the learning rate controls convergence speed",
		"momentum is an unrelated topic entirely",
	))
	require.True(t, indexed)
	assert.True(t, store.HasDocument(docID))

	results := store.Search(docID, "gradient descent convergence", 10)
	require.NotEmpty(t, results)

	// The chunk actually containing the query terms ranks first
	assert.Equal(t, 0, results[0].Ordinal)
	assert.Equal(t, "paper-a", results[0].DocumentName)
	assert.Greater(t, results[0].Score, 0.0)

	// The unrelated chunk scores zero and is excluded
	for _, r := range results {
		assert.NotEqual(t, 2, r.Ordinal)
	}
}

func TestStoreSearchUnknownDocument(t *testing.T) {
	store := NewStore()
	assert.Empty(t, store.Search(core.ID(42), "anything", 5))
}

func TestStoreSearchTopK(t *testing.T) {
	store := NewStore()
	docID := core.ID(1)

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("entropy appears in chunk %d", i)
	}
	require.True(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID, texts...)))

	results := store.Search(docID, "entropy", 3)
	assert.Len(t, results, 3)

	// Equal scores keep original chunk order
	assert.Equal(t, 0, results[0].Ordinal)
	assert.Equal(t, 1, results[1].Ordinal)
	assert.Equal(t, 2, results[2].Ordinal)
}

func TestStoreSearchDescendingOrder(t *testing.T) {
	store := NewStore()
	docID := core.ID(1)

	require.True(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID,
		"entropy",
		"entropy entropy entropy and a lot of other words to dilute frequency weight",
		"nothing relevant here",
	)))

	results := store.Search(docID, "entropy", 10)
	require.Len(t, results, 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestStoreIndexingSkipped(t *testing.T) {
	store := NewStore()
	docID := core.ID(7)

	// Whitespace-only chunks produce no tokens
	indexed := store.IndexChunks(docID, "empty", chunksFromTexts(docID, "   ", "\n\t"))
	assert.False(t, indexed)
	assert.False(t, store.HasDocument(docID))
}

func TestStoreSkippedIndexKeepsExisting(t *testing.T) {
	store := NewStore()
	docID := core.ID(7)

	require.True(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID, "real content here")))

	// A failed reindex must not clobber the existing index
	assert.False(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID, "   ")))
	assert.True(t, store.HasDocument(docID))
	assert.NotEmpty(t, store.Search(docID, "content", 5))
}

func TestStoreReindexReplaces(t *testing.T) {
	store := NewStore()
	docID := core.ID(3)

	require.True(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID, "old topic alpha")))
	require.True(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID, "new topic beta")))

	assert.Empty(t, store.Search(docID, "alpha", 5))
	assert.NotEmpty(t, store.Search(docID, "beta", 5))
}

func TestStoreRemove(t *testing.T) {
	store := NewStore()
	docID := core.ID(9)

	require.True(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID, "some text")))
	store.Remove(docID)

	assert.False(t, store.HasDocument(docID))
	assert.Empty(t, store.Search(docID, "some", 5))

	// Removing again is a no-op
	store.Remove(docID)
}

func TestStoreDocumentIds(t *testing.T) {
	store := NewStore()
	for _, id := range []core.ID{30, 10, 20} {
		require.True(t, store.IndexChunks(id, "paper", chunksFromTexts(id, "text")))
	}

	assert.Equal(t, []core.ID{10, 20, 30}, store.DocumentIds())
	assert.Equal(t, 3, store.DocumentCount())
}

func TestStoreCaseInsensitiveMatching(t *testing.T) {
	store := NewStore()
	docID := core.ID(4)

	require.True(t, store.IndexChunks(docID, "paper", chunksFromTexts(docID, "BERT embeddings for NLP")))

	assert.NotEmpty(t, store.Search(docID, "bert", 5))
	assert.NotEmpty(t, store.Search(docID, "BERT", 5))
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	base := core.ID(100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := base + core.ID(n)
			store.IndexChunks(id, "paper", chunksFromTexts(id, "shared vocabulary term"))
			store.Search(id, "vocabulary", 5)
			store.DocumentIds()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, store.DocumentCount())
}
