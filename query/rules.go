package query

import "strings"

// Strategy identifies one of the fixed retrieval behaviors a query can be
// dispatched to.
type Strategy string

const (
	// StrategyVectorSearch answers specific questions via plain semantic search.
	StrategyVectorSearch Strategy = "vector_search"

	// StrategySummary produces broad overviews from a wide retrieval window.
	StrategySummary Strategy = "summary"

	// StrategyDetailed produces multi-aspect analysis from a medium window.
	StrategyDetailed Strategy = "detailed_analysis"

	// StrategyComparison fans the query out across every indexed paper and
	// synthesizes a cross-paper answer.
	StrategyComparison Strategy = "compare_papers"

	// StrategyHybrid combines semantic search with exact keyword matching.
	StrategyHybrid Strategy = "hybrid_search"
)

// rule binds a strategy to the trigger phrases that select it.
type rule struct {
	strategy Strategy
	triggers []string
}

// routingRules is the ordered rule table the Router evaluates. Earlier rules
// win: comparison triggers take priority over hybrid, hybrid over summary,
// summary over detailed. A query matching no rule falls back to
// StrategyVectorSearch.
var routingRules = []rule{
	{
		strategy: StrategyComparison,
		triggers: []string{
			"compare", "across papers", "different papers", "all papers",
			"similarities", "differences", "between papers",
		},
	},
	{
		strategy: StrategyHybrid,
		triggers: []string{
			"find mentions", "all equations", "references to", "citations of",
			"show all", "list all", "search for term",
		},
	},
	{
		strategy: StrategySummary,
		triggers: []string{
			"summarize", "summary", "overview", "main", "contribution", "about",
		},
	},
	{
		strategy: StrategyDetailed,
		triggers: []string{
			"explain", "how does", "analyze", "discuss", "describe", "why",
		},
	},
}

// Route classifies a question into a retrieval strategy. Matching is
// case-insensitive substring containment against the ordered rule table;
// the first matching rule wins. Route inspects the question text only,
// never document content, so it is a pure function.
func Route(question string) Strategy {
	lowered := strings.ToLower(question)
	for _, r := range routingRules {
		for _, trigger := range r.triggers {
			if strings.Contains(lowered, trigger) {
				return r.strategy
			}
		}
	}
	return StrategyVectorSearch
}
