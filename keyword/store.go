package keyword

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/paperit/core"
)

// Store holds one BM25 index per document. It is the only component with
// query-independent mutable state: a document's entry is replaced atomically
// on reindex, and reads of other documents never block on a rebuild.
type Store struct {
	mu      sync.RWMutex
	indexes map[core.ID]*docIndex
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewStore creates an empty keyword index store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		indexes: make(map[core.ID]*docIndex),
		logger:  slog.Default().With("component", "keyword-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tokenize lowercases and whitespace-splits text. The same tokenizer is used
// at index time and query time.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Index builds (or rebuilds) the BM25 index for a document from raw chunk
// texts. Empty and whitespace-only texts are filtered out first; if nothing
// tokenizable remains the document is skipped, which is a logged no-op, not
// an error. Returns true if an index was built.
func (s *Store) Index(docID core.ID, texts []string) bool {
	chunks := make([]*core.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, &core.Chunk{DocumentId: docID, Ordinal: i, Text: text})
	}
	return s.IndexChunks(docID, "", chunks)
}

// IndexChunks is Index with full chunk metadata, so keyword hits carry the
// same positional provenance as semantic hits.
func (s *Store) IndexChunks(docID core.ID, docName string, chunks []*core.Chunk) bool {
	idx := buildDocIndex(docName, chunks)
	if idx == nil {
		s.logger.Info("skipping keyword index, no usable tokens", "documentID", docID)
		return false
	}

	s.mu.Lock()
	s.indexes[docID] = idx
	s.mu.Unlock()

	s.logger.Debug("indexed document for keyword search", "documentID", docID, "chunks", len(idx.chunks))
	return true
}

// Search scores every indexed chunk of the document against the query and
// returns the topK highest-scoring chunks in descending score order. Chunks
// with a non-positive score are excluded; ties keep original chunk order.
// An unknown document returns an empty result, never an error.
func (s *Store) Search(docID core.ID, query string, topK int) []core.ScoredResult {
	s.mu.RLock()
	idx := s.indexes[docID]
	s.mu.RUnlock()

	if idx == nil || topK < 1 {
		return nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	var results []core.ScoredResult
	for _, chunk := range idx.chunks {
		score := idx.score(terms, chunk)
		if score <= 0 {
			continue
		}
		results = append(results, core.ScoredResult{
			DocumentId:   docID,
			DocumentName: idx.name,
			Ordinal:      chunk.ordinal,
			Page:         chunk.page,
			Text:         chunk.text,
			Score:        score,
		})
	}

	// Chunks were scored in source order, so a stable sort keeps the
	// original chunk order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Remove drops a document's keyword index. Removing an unknown document is a no-op.
func (s *Store) Remove(docID core.ID) {
	s.mu.Lock()
	delete(s.indexes, docID)
	s.mu.Unlock()
}

// HasDocument reports whether the document has a keyword index.
func (s *Store) HasDocument(docID core.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[docID]
	return ok
}

// DocumentIds returns the indexed document IDs in ascending order.
func (s *Store) DocumentIds() []core.ID {
	s.mu.RLock()
	ids := make([]core.ID, 0, len(s.indexes))
	for id := range s.indexes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// DocumentCount returns the number of indexed documents.
func (s *Store) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indexes)
}
