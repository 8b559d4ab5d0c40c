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


package paperit

import (
	"context"
	"log/slog"

	"github.com/poiesic/paperit/ai"
	"github.com/poiesic/paperit/ai/openai"
	"github.com/poiesic/paperit/ingestion"
	"github.com/poiesic/paperit/keyword"
	"github.com/poiesic/paperit/query"
	"github.com/poiesic/paperit/storage"
	"github.com/poiesic/paperit/storage/badger"
)

// Engine wires storage, the keyword index, and the AI provider into one
// paper Q&A system.
type Engine struct {
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	keywords  *keyword.Store
	provider  ai.AIProvider
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built AI provider, bypassing aiConfig.
// Intended for tests that supply mock services.
func WithAIProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage opens the storage backend in memory, discarding all
// data on Close.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithEngineLogger sets a custom logger.
// Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine opens the storage backend at filePath and assembles the engine.
// The keyword index lives in memory only, so it is rebuilt from stored
// chunks on startup.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider unless one was injected
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	e := &Engine{
		backend:   backend,
		chunkRepo: chunkRepo,
		keywords:  keyword.NewStore(keyword.WithLogger(options.logger)),
		provider:  provider,
		logger:    options.logger,
	}

	if err := e.rebuildKeywordIndexes(context.Background()); err != nil {
		e.Close()
		return nil, err
	}

	return e, nil
}

// rebuildKeywordIndexes repopulates the in-memory keyword index from stored
// chunks.
func (e *Engine) rebuildKeywordIndexes(ctx context.Context) error {
	docs, err := e.chunkRepo.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		chunks, err := e.chunkRepo.GetChunks(ctx, doc.Id)
		if err != nil {
			return err
		}
		if !e.keywords.IndexChunks(doc.Id, doc.Name, chunks) {
			e.logger.Info("keyword indexing skipped on rebuild, paper produced no tokens",
				"paper", doc.Name)
		}
	}
	return nil
}

func (e *Engine) Close() error {
	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

func (e *Engine) KeywordStore() *keyword.Store {
	return e.keywords
}

func (e *Engine) Embedder() ai.Embedder {
	return e.provider.Embedder()
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.chunkRepo, e.keywords, e.provider, opts...)
}

func (e *Engine) NewRouter(opts ...query.Option) (*query.Router, error) {
	return query.NewRouter(e.chunkRepo, e.keywords, e.provider, opts...)
}
