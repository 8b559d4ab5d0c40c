// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/paperit/ai"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks per embedding call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for failed embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embeddings of every stored chunk, for use after
// switching to a different embedding model. Each document is rewritten as
// one atomic replacement, so a crash mid-run leaves every document either
// fully re-embedded or untouched.
type Reembedder struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   config,
		progress: progress,
	}
}

// Run re-embeds every chunk of every document in the corpus.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	docs, err := r.repo.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list papers: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintf(r.progress, "No papers found in database (0 papers)\n")
		return nil
	}

	totalChunks := 0
	for _, doc := range docs {
		totalChunks += doc.ChunkCount
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks across %d papers (batch size: %d)\n",
		totalChunks, len(docs), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalChunks, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for _, doc := range docs {
		chunks, err := r.repo.GetChunks(ctx, doc.Id)
		if err != nil {
			return fmt.Errorf("failed to load chunks for %q: %w", doc.Name, err)
		}

		for start := 0; start < len(chunks); start += r.config.BatchSize {
			end := start + r.config.BatchSize
			if end > len(chunks) {
				end = len(chunks)
			}
			if err := r.processBatch(ctx, chunks[start:end]); err != nil {
				return fmt.Errorf("failed to re-embed %q: %w", doc.Name, err)
			}
			processed += end - start
			tracker.Update(processed)
		}

		// Atomic replacement: the document flips to the new vectors all at once
		if err := r.repo.AddDocument(ctx, doc, chunks...); err != nil {
			return fmt.Errorf("failed to store %q: %w", doc.Name, err)
		}
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return nil
}

// processBatch embeds one batch of chunks with retry and assigns the
// normalized vectors.
func (r *Reembedder) processBatch(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = r.embedder.EmbedTexts(ctx, texts)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("embedding failed after %d attempts: %w", r.config.MaxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Vector = NormalizeVector(embeddings[i])
	}
	return nil
}
