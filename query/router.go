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


package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/paperit/ai"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/keyword"
	"github.com/poiesic/paperit/storage"
)

// insufficientPapersMessage is the user-facing answer when a comparison is
// requested with fewer than two papers indexed.
const insufficientPapersMessage = "Need at least 2 papers for comparison. Please upload more papers."

// Router classifies incoming questions and dispatches them to the retrieval
// strategy best suited to each one. It owns the comparator and hybrid
// searcher and a shared worker pool for their multi-paper fan-out.
type Router struct {
	repository storage.ChunkRepository
	embedder   ai.Embedder
	generator  ai.Generator
	comparator *Comparator
	hybrid     *HybridSearcher
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Router.
type Option func(*Router) error

// WithPoolSize sets the worker pool size for multi-paper fan-out.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Router) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRouter creates a new query router.
func NewRouter(
	repository storage.ChunkRepository,
	keywords *keyword.Store,
	provider ai.AIProvider,
	opts ...Option,
) (*Router, error) {
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

	r := &Router{
		repository: repository,
		embedder:   provider.Embedder(),
		generator:  provider.Generator(),
		pool:       pool,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Release()
			return nil, err
		}
	}

	// Workflows share the router's pool and logger after options are applied
	r.comparator = newComparator(repository, r.embedder, r.generator, r.pool, r.logger)
	r.hybrid = newHybridSearcher(repository, keywords, r.embedder, r.pool, r.logger)

	return r, nil
}

// Query answers a question over the indexed corpus. It classifies the
// question, dispatches it to the selected strategy, and returns the answer
// together with source references and the reasoning trace.
//
// Returns core.ErrEmptyCorpus before any retrieval work when no papers are
// indexed. All other strategy failures degrade to a formatted answer string
// rather than an error, so callers always get a usable response.
func (r *Router) Query(ctx context.Context, question string) (*core.QueryResponse, error) {
	docs, err := r.repository.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	trace := &Trace{}
	trace.Add("Query Analysis", fmt.Sprintf("Analyzing: '%s'", question))

	strategy := Route(question)
	trace.Add("Tool Selection", fmt.Sprintf("Selected '%s' based on query patterns", strategy))

	var answer string
	var sources []core.SourceRef

	switch strategy {
	case StrategyComparison:
		answer, err = r.comparator.Compare(ctx, question)
		if errors.Is(err, core.ErrInsufficientDocuments) {
			answer = insufficientPapersMessage
		} else if err != nil {
			r.logger.Warn("comparison degraded to error answer", "err", err)
			answer = fmt.Sprintf("Comparison failed: %v", err)
		}
	case StrategyHybrid:
		answer, err = r.hybrid.Search(ctx, question)
		if err != nil {
			r.logger.Warn("hybrid search degraded to error answer", "err", err)
			answer = fmt.Sprintf("Hybrid search failed: %v", err)
		}
	default:
		answer, sources, err = r.executeStandard(ctx, question, strategy)
		if err != nil {
			r.logger.Warn("standard query degraded to error answer",
				"strategy", strategy, "err", err)
			answer = fmt.Sprintf("Query failed: %v", err)
		}
	}

	trace.Add("Answer Synthesis", fmt.Sprintf("Generated answer using '%s' tool", strategy))

	return &core.QueryResponse{
		Answer:    answer,
		Sources:   sources,
		Reasoning: trace.Steps(),
	}, nil
}

// Release releases the worker pool. The router should not be used after
// calling Release.
func (r *Router) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}
