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
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/paperit/ai"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/fusion"
	"github.com/poiesic/paperit/keyword"
	"github.com/poiesic/paperit/storage"
)

const (
	// hybridSemanticTopK is the corpus-wide semantic retrieval window.
	hybridSemanticTopK = 10

	// hybridKeywordTopK is the per-paper keyword retrieval window.
	hybridKeywordTopK = 5

	// hybridAlpha weights the semantic side of the fusion: 60% semantic,
	// 40% keyword.
	hybridAlpha = 0.6

	// hybridResultCount is how many fused results appear in the answer.
	hybridResultCount = 5

	// hybridPreviewLen truncates each result's text in the answer.
	hybridPreviewLen = 300
)

// HybridSearcher answers exact-term queries by fusing corpus-wide semantic
// search with per-paper BM25 keyword search.
type HybridSearcher struct {
	repository storage.ChunkRepository
	keywords   *keyword.Store
	embedder   ai.Embedder
	pool       *ants.Pool
	logger     *slog.Logger
}

func newHybridSearcher(
	repository storage.ChunkRepository,
	keywords *keyword.Store,
	embedder ai.Embedder,
	pool *ants.Pool,
	logger *slog.Logger,
) *HybridSearcher {
	return &HybridSearcher{
		repository: repository,
		keywords:   keywords,
		embedder:   embedder,
		pool:       pool,
		logger:     logger,
	}
}

// Search runs the hybrid workflow: embed the question, search all papers
// semantically, search every paper's keyword index concurrently, fuse the
// two result sets, and format the top fused results.
//
// Keyword fan-out results are reassembled in the keyword store's sorted
// paper order before fusion, so the output is deterministic for identical
// inputs regardless of completion order.
func (h *HybridSearcher) Search(ctx context.Context, question string) (string, error) {
	vector, err := h.embedder.EmbedText(ctx, question)
	if err != nil {
		return "", &RetrievalError{Stage: "query embedding", Err: err}
	}

	semantic, err := h.repository.SearchAll(ctx, vector, hybridSemanticTopK)
	if err != nil {
		return "", &RetrievalError{Stage: "semantic search", Err: err}
	}

	// Keyword search is pure in-memory computation, but it scales with the
	// number of papers, so fan it out on the shared pool anyway.
	docIds := h.keywords.DocumentIds()
	perPaper := make([][]core.ScoredResult, len(docIds))
	var wg sync.WaitGroup
	for i, docID := range docIds {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			perPaper[i] = h.keywords.Search(docID, question, hybridKeywordTopK)
		}
		if submitErr := h.pool.Submit(task); submitErr != nil {
			task()
		}
	}
	wg.Wait()

	var keywordResults []core.ScoredResult
	for _, results := range perPaper {
		keywordResults = append(keywordResults, results...)
	}

	fused := fusion.Fuse(semantic, keywordResults, hybridAlpha)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hybrid search results for: %s\n\n", question)
	for i, r := range fused {
		if i >= hybridResultCount {
			break
		}
		fmt.Fprintf(&sb, "%d. [Score: %.3f]\n", i+1, r.HybridScore)
		fmt.Fprintf(&sb, "%s\n\n", truncate(r.Text, hybridPreviewLen))
	}
	if len(fused) == 0 {
		sb.WriteString("No results found.\n")
	}
	return sb.String(), nil
}
