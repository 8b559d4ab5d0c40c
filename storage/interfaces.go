package storage

import (
	"context"

	"github.com/poiesic/paperit/core"
)

// Repository provides common storage operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ChunkRepository provides persistence and retrieval for documents and their chunks.
// It doubles as the document registry and the semantic search gateway backing store.
type ChunkRepository interface {
	Repository

	// AddDocument stores a document together with its chunks.
	// Re-adding an existing document ID replaces the document and all of its
	// chunks atomically; readers never observe a partially replaced document.
	AddDocument(ctx context.Context, doc *core.Document, chunks ...*core.Chunk) error

	// DeleteDocument removes a document and all of its chunks.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all documents in a fixed, deterministic order
	// (by name, then ID). The order is stable across calls so multi-document
	// fan-out can reassemble results positionally.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// GetChunks retrieves a document's chunks in source order.
	// Returns an empty slice for an unknown document.
	GetChunks(ctx context.Context, docID core.ID) ([]*core.Chunk, error)

	// SearchAll finds the topK chunks most similar to the query vector across
	// all documents. Results are ordered by descending similarity; chunks
	// without embeddings or with non-positive similarity are excluded.
	SearchAll(ctx context.Context, vector []float32, topK int) ([]core.ScoredResult, error)

	// SearchWithin is SearchAll restricted to the given document IDs.
	SearchWithin(ctx context.Context, docIDs []core.ID, vector []float32, topK int) ([]core.ScoredResult, error)
}
