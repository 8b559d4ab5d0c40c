package fusion

import (
	"sort"

	"github.com/poiesic/paperit/core"
)

// DedupKeyLen is the number of leading characters of a result's text used as
// its identity during fusion. Semantic and keyword hits have no shared stable
// key, so near-duplicate detection is approximated by a common text prefix.
// Near-duplicate chunks whose prefixes differ will not be merged; the
// trade-off favors recall.
const DedupKeyLen = 100

// dedupKey returns the fusion identity of a result.
func dedupKey(text string) string {
	runes := []rune(text)
	if len(runes) > DedupKeyLen {
		return string(runes[:DedupKeyLen])
	}
	return text
}

// Fuse normalizes and linearly combines a semantic result set and a keyword
// result set into one ranked list.
//
// Each side is normalized by its own maximum score (1 when the side is
// empty). Semantic results contribute alpha * (score/semMax); keyword results
// contribute (1-alpha) * (score/kwMax), merging into an existing entry when
// the dedup key matches. Every input appears in the output exactly once per
// dedup key, and the hybrid score stays in [0,1] for alpha in [0,1].
//
// The output is sorted by hybrid score descending; equal scores keep
// first-seen order (semantic inputs before keyword inputs), so the function
// is deterministic for identical inputs.
func Fuse(semantic, keyword []core.ScoredResult, alpha float64) []core.FusedResult {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}

	semMax := maxScore(semantic)
	kwMax := maxScore(keyword)

	var fused []core.FusedResult
	byKey := make(map[string]int, len(semantic)+len(keyword))

	for _, r := range semantic {
		key := dedupKey(r.Text)
		if _, ok := byKey[key]; ok {
			// Duplicate within the semantic set itself; keep the higher-ranked hit
			continue
		}
		byKey[key] = len(fused)
		fused = append(fused, core.FusedResult{
			ScoredResult: r,
			HybridScore:  alpha * (r.Score / semMax),
			FromSemantic: true,
		})
	}

	for _, r := range keyword {
		contribution := (1 - alpha) * (r.Score / kwMax)
		key := dedupKey(r.Text)
		if i, ok := byKey[key]; ok {
			fused[i].HybridScore += contribution
			fused[i].FromKeyword = true
			continue
		}
		byKey[key] = len(fused)
		fused = append(fused, core.FusedResult{
			ScoredResult: r,
			HybridScore:  contribution,
			FromKeyword:  true,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].HybridScore > fused[j].HybridScore
	})
	return fused
}

// maxScore returns the maximum raw score of a result set, defaulting to 1
// for an empty set to avoid division by zero during normalization.
func maxScore(results []core.ScoredResult) float64 {
	if len(results) == 0 {
		return 1
	}
	max := results[0].Score
	for _, r := range results[1:] {
		if r.Score > max {
			max = r.Score
		}
	}
	if max == 0 {
		return 1
	}
	return max
}
