package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/paperit/core"
)

const sourcePreviewLen = 300

// standardTopK returns the retrieval window for each standard strategy.
// Summaries read wide, detailed analysis reads a medium window, and plain
// vector search reads narrow.
func standardTopK(strategy Strategy) int {
	switch strategy {
	case StrategySummary:
		return 10
	case StrategyDetailed:
		return 7
	default:
		return 5
	}
}

// standardInstruction returns the generation instruction for each standard
// strategy.
func standardInstruction(strategy Strategy) string {
	switch strategy {
	case StrategySummary:
		return "Write a comprehensive summary that covers the main contributions, " +
			"objectives, and conclusions found in the excerpts."
	case StrategyDetailed:
		return "Write a detailed analysis that explains the relevant concepts, " +
			"approaches, and limitations found in the excerpts."
	default:
		return "Answer the question using only the excerpts. " +
			"If the excerpts do not contain the answer, say so."
	}
}

// executeStandard runs one of the plain retrieval strategies: embed the
// question, search the whole corpus, and generate an answer grounded in the
// retrieved excerpts.
func (r *Router) executeStandard(ctx context.Context, question string, strategy Strategy) (string, []core.SourceRef, error) {
	vector, err := r.embedder.EmbedText(ctx, question)
	if err != nil {
		return "", nil, &RetrievalError{Stage: "query embedding", Err: err}
	}

	results, err := r.repository.SearchAll(ctx, vector, standardTopK(strategy))
	if err != nil {
		return "", nil, &RetrievalError{Stage: "semantic search", Err: err}
	}
	if len(results) == 0 {
		return "No relevant passages found for this question.", []core.SourceRef{}, nil
	}

	answer, err := r.generator.Generate(ctx, standardPrompt(question, strategy, results))
	if err != nil {
		return "", nil, &SynthesisError{Err: err}
	}

	return answer, extractSources(results), nil
}

// standardPrompt assembles the generation prompt from the question and the
// retrieved excerpts.
func standardPrompt(question string, strategy Strategy, results []core.ScoredResult) string {
	var sb strings.Builder
	sb.WriteString("You are answering questions about research papers.\n\n")
	sb.WriteString("Excerpts:\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] (%s", i+1, r.DocumentName)
		if r.Page > 0 {
			fmt.Fprintf(&sb, ", page %d", r.Page)
		}
		sb.WriteString(")\n")
		sb.WriteString(r.Text)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	sb.WriteString(standardInstruction(strategy))
	return sb.String()
}

// extractSources converts retrieval results into user-facing source
// references with truncated previews.
func extractSources(results []core.ScoredResult) []core.SourceRef {
	sources := make([]core.SourceRef, 0, len(results))
	for _, r := range results {
		sources = append(sources, core.SourceRef{
			DocumentName: r.DocumentName,
			DocumentId:   r.DocumentId,
			Page:         r.Page,
			Preview:      truncate(r.Text, sourcePreviewLen),
			Score:        r.Score,
		})
	}
	return sources
}
