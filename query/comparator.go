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
	"github.com/poiesic/paperit/storage"
)

const (
	// comparisonMinPapers is the minimum corpus size for a comparison.
	comparisonMinPapers = 2

	// comparisonTopK is the per-paper retrieval window.
	comparisonTopK = 3

	// comparisonFindings is how many findings per paper enter the evidence block.
	comparisonFindings = 2

	// comparisonPreviewLen truncates each finding in the evidence block.
	comparisonPreviewLen = 200

	// synthesisSeparator divides the raw evidence from the generated synthesis.
	synthesisSeparator = "\n=== SYNTHESIS ===\n"
)

// Comparator answers comparison queries by searching every indexed paper
// independently, assembling per-paper evidence, and asking the generator for
// a cross-paper synthesis.
type Comparator struct {
	repository storage.ChunkRepository
	embedder   ai.Embedder
	generator  ai.Generator
	pool       *ants.Pool
	logger     *slog.Logger
}

func newComparator(
	repository storage.ChunkRepository,
	embedder ai.Embedder,
	generator ai.Generator,
	pool *ants.Pool,
	logger *slog.Logger,
) *Comparator {
	return &Comparator{
		repository: repository,
		embedder:   embedder,
		generator:  generator,
		pool:       pool,
		logger:     logger,
	}
}

// Compare fans the question out across every indexed paper and returns the
// raw evidence block concatenated with a generated synthesis.
//
// Returns core.ErrInsufficientDocuments when fewer than two papers are
// indexed. Per-paper searches run concurrently on the shared pool; the
// evidence block is reassembled in the registry's paper order, so the
// synthesis prompt is stable regardless of completion order. When the
// generation call fails the evidence block is still returned, with the
// failure recorded inline in place of the synthesis.
func (c *Comparator) Compare(ctx context.Context, question string) (string, error) {
	docs, err := c.repository.ListDocuments(ctx)
	if err != nil {
		return "", &RetrievalError{Stage: "listing papers", Err: err}
	}
	if len(docs) < comparisonMinPapers {
		return "", core.ErrInsufficientDocuments
	}

	vector, err := c.embedder.EmbedText(ctx, question)
	if err != nil {
		return "", &RetrievalError{Stage: "query embedding", Err: err}
	}

	// Fan out one restricted search per paper. Results land in a slice
	// indexed by paper position so reassembly is order-stable.
	perPaper := make([][]core.ScoredResult, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results, searchErr := c.repository.SearchWithin(ctx, []core.ID{doc.Id}, vector, comparisonTopK)
			if searchErr != nil {
				c.logger.Warn("per-paper search failed, skipping paper",
					"paper", doc.Name, "err", searchErr)
				return
			}
			perPaper[i] = results
		}
		if submitErr := c.pool.Submit(task); submitErr != nil {
			task()
		}
	}
	wg.Wait()

	var evidence strings.Builder
	fmt.Fprintf(&evidence, "Cross-paper analysis for: %s\n\n", question)
	withResults := 0
	for i, doc := range docs {
		if len(perPaper[i]) == 0 {
			continue
		}
		withResults++
		fmt.Fprintf(&evidence, "Paper: %s\n", doc.Name)
		evidence.WriteString("Key findings:\n")
		for n, r := range perPaper[i] {
			if n >= comparisonFindings {
				break
			}
			fmt.Fprintf(&evidence, "%d. %s\n", n+1, truncate(r.Text, comparisonPreviewLen))
		}
		evidence.WriteString("\n")
	}
	if withResults == 0 {
		return "", &RetrievalError{Stage: "per-paper search", Err: fmt.Errorf("no paper returned results")}
	}

	synthesis, err := c.generator.Generate(ctx, synthesisPrompt(evidence.String()))
	if err != nil {
		c.logger.Warn("comparison synthesis failed, returning evidence only", "err", err)
		return evidence.String() + synthesisSeparator +
			fmt.Sprintf("Synthesis failed: %v", err), nil
	}

	return evidence.String() + synthesisSeparator + synthesis, nil
}

// synthesisPrompt wraps the evidence block in the fixed comparison
// instruction.
func synthesisPrompt(evidence string) string {
	return fmt.Sprintf(`Based on these findings from multiple papers:

%s

Provide a comparative analysis that:
1. Highlights key similarities
2. Points out important differences
3. Synthesizes insights across papers

Keep it concise (3-4 paragraphs).`, evidence)
}
