package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/paperit/ai"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/keyword"
	"github.com/poiesic/paperit/storage"
)

// embedBatchSize is how many chunk texts go into one embedding call.
const embedBatchSize = 32

// ChunkInput is one chunk of a paper handed to the pipeline, as produced by
// an upstream document splitter.
type ChunkInput struct {
	Text string
	Page int
}

// Pipeline ingests papers: it derives content-based IDs, embeds chunk text,
// persists the document and its chunks, and builds the keyword index.
type Pipeline struct {
	repository storage.ChunkRepository
	keywords   *keyword.Store
	embedder   ai.Embedder
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.ChunkRepository,
	keywords *keyword.Store,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if keywords == nil {
		return nil, ErrKeywordStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		keywords:   keywords,
		embedder:   provider.Embedder(),
		pool:       pool,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// Ingest adds a paper to the corpus. The paper's ID is derived from its
// name, so re-ingesting the same name replaces the previous version
// atomically. Whitespace-only chunks are dropped; if nothing usable remains,
// Ingest returns ErrNoUsableChunks.
//
// Embedding runs in batches on the worker pool. A failed batch is logged and
// its chunks keep empty vectors; they stay reachable through keyword search
// but are skipped by semantic search.
func (p *Pipeline) Ingest(ctx context.Context, name string, inputs []ChunkInput) (*core.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, core.ErrEmptyDocumentName
	}

	usable := make([]ChunkInput, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Text) != "" {
			usable = append(usable, in)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoUsableChunks
	}

	docID := core.IDFromContent(name)
	doc := &core.Document{
		Id:         docID,
		Name:       name,
		ChunkCount: len(usable),
		InsertedAt: time.Now().UTC(),
	}

	chunks := make([]*core.Chunk, len(usable))
	for i, in := range usable {
		chunks[i] = &core.Chunk{
			DocumentId: docID,
			Ordinal:    i,
			Text:       in.Text,
			Page:       in.Page,
		}
	}

	p.embedChunks(ctx, name, chunks)

	if err := p.repository.AddDocument(ctx, doc, chunks...); err != nil {
		return nil, err
	}

	if !p.keywords.IndexChunks(docID, name, chunks) {
		p.logger.Info("keyword indexing skipped, paper produced no tokens", "paper", name)
	}

	p.logger.Info("ingested paper", "paper", name, "chunks", len(chunks))
	return doc, nil
}

// embedChunks fills in chunk vectors, one pool task per batch. Batches land
// back in chunk order regardless of completion order.
func (p *Pipeline) embedChunks(ctx context.Context, name string, chunks []*core.Chunk) {
	var wg sync.WaitGroup
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}
			vectors, err := p.embedder.EmbedTexts(ctx, texts)
			if err != nil || len(vectors) != len(batch) {
				p.logger.Warn("embedding batch failed, chunks keep empty vectors",
					"paper", name, "batchSize", len(batch), "err", err)
				return
			}
			for i, c := range batch {
				c.Vector = vectors[i]
			}
		}
		if submitErr := p.pool.Submit(task); submitErr != nil {
			task()
		}
	}
	wg.Wait()
}

// Remove deletes a paper from storage and drops its keyword index.
// Returns storage.ErrNotFound if the paper doesn't exist.
func (p *Pipeline) Remove(ctx context.Context, docID core.ID) error {
	if err := p.repository.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	p.keywords.Remove(docID)
	return nil
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
