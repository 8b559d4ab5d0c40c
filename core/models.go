package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs are generated from the document's display name using
// content-based hashing, so re-uploading the same file maps to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document represents one ingested document. It is immutable after
// ingestion; the only permitted mutation is deletion, which removes the
// document together with all of its chunks and indices.
type Document struct {
	Id         ID
	Name       string // Display name (typically the uploaded filename)
	ChunkCount int
	InsertedAt time.Time // When the document was ingested
}

// Chunk is a bounded span of a document's text, the unit of retrieval.
// Chunks within a document preserve source order via Ordinal.
type Chunk struct {
	DocumentId ID
	Ordinal    int    // Position within the document, starting at 0
	Text       string // Non-empty after trimming
	Page       int    // Source page number; 0 when unknown
	Vector     []float32
}

// ScoredResult is a retrieval hit produced by any strategy. The score is on
// a raw, strategy-specific scale (cosine similarity for semantic hits, BM25
// for keyword hits) and is never mutated after creation.
type ScoredResult struct {
	DocumentId   ID
	DocumentName string
	Ordinal      int
	Page         int
	Text         string
	Score        float64
}

// FusedResult is a ScoredResult with a combined, normalized score and
// provenance flags indicating which retrieval signal(s) contributed.
type FusedResult struct {
	ScoredResult
	HybridScore  float64
	FromSemantic bool
	FromKeyword  bool
}

// ReasoningStep is one entry in the ordered, append-only trace the router
// records while answering a query.
type ReasoningStep struct {
	Step        string
	Description string
}

// SourceRef points at the evidence supporting an answer.
type SourceRef struct {
	DocumentName string
	Page         int // 0 when unknown
	Preview      string
	Score        float64
	DocumentId   ID
}

// QueryResponse is the router's outward-facing result for one query.
// Every query produces an answer string and a (possibly empty) trace;
// a raw failure is never surfaced to the caller.
type QueryResponse struct {
	Answer    string
	Sources   []SourceRef
	Reasoning []ReasoningStep
}
