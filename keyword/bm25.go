package keyword

import (
	"math"
	"strings"

	"github.com/poiesic/paperit/core"
)

// Okapi BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// docIndex is the immutable per-document BM25 index. Once published into the
// Store's map it is never mutated, so concurrent readers need no locking
// beyond the map access itself.
type docIndex struct {
	name   string
	chunks []indexedChunk
	// docFreq counts how many chunks contain each term
	docFreq map[string]int
	avgLen  float64
}

type indexedChunk struct {
	ordinal  int
	page     int
	text     string
	termFreq map[string]int
	length   int
}

// buildDocIndex tokenizes chunks and computes term statistics. Returns nil
// when no chunk yields any tokens, signalling the caller to skip indexing.
func buildDocIndex(name string, chunks []*core.Chunk) *docIndex {
	idx := &docIndex{
		name:    name,
		docFreq: make(map[string]int),
	}

	var totalLen int
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		terms := tokenize(chunk.Text)
		if len(terms) == 0 {
			continue
		}

		tf := make(map[string]int, len(terms))
		for _, term := range terms {
			tf[term]++
		}
		for term := range tf {
			idx.docFreq[term]++
		}

		idx.chunks = append(idx.chunks, indexedChunk{
			ordinal:  chunk.Ordinal,
			page:     chunk.Page,
			text:     chunk.Text,
			termFreq: tf,
			length:   len(terms),
		})
		totalLen += len(terms)
	}

	if len(idx.chunks) == 0 {
		return nil
	}
	idx.avgLen = float64(totalLen) / float64(len(idx.chunks))
	return idx
}

// idf computes the inverse document frequency of a term over the document's
// chunks: ln(1 + (N - df + 0.5)/(df + 0.5)). The +1 keeps it positive even
// for terms present in every chunk.
func (idx *docIndex) idf(term string) float64 {
	df := idx.docFreq[term]
	if df == 0 {
		return 0
	}
	n := float64(len(idx.chunks))
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}

// score computes the Okapi BM25 score of one chunk for the query terms.
func (idx *docIndex) score(terms []string, chunk indexedChunk) float64 {
	var score float64
	for _, term := range terms {
		tf := chunk.termFreq[term]
		if tf == 0 {
			continue
		}
		idf := idx.idf(term)
		num := float64(tf) * (bm25K1 + 1)
		den := float64(tf) + bm25K1*(1-bm25B+bm25B*float64(chunk.length)/idx.avgLen)
		score += idf * num / den
	}
	return score
}
