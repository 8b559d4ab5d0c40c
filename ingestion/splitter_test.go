package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := SplitText("a single paragraph", 1000)
		require.Len(t, chunks, 1)
		assert.Equal(t, "a single paragraph", chunks[0].Text)
	})

	t.Run("splits on paragraph boundaries", func(t *testing.T) {
		a := strings.Repeat("a", 60)
		b := strings.Repeat("b", 60)
		chunks := SplitText(a+"\n\n"+b, 100)
		require.Len(t, chunks, 2)
		assert.Equal(t, a, chunks[0].Text)
		assert.Equal(t, b, chunks[1].Text)
	})

	t.Run("packs small paragraphs together", func(t *testing.T) {
		chunks := SplitText("one\n\ntwo\n\nthree", 100)
		require.Len(t, chunks, 1)
		assert.Equal(t, "one\n\ntwo\n\nthree", chunks[0].Text)
	})

	t.Run("oversized paragraph stays whole", func(t *testing.T) {
		long := strings.Repeat("x", 500)
		chunks := SplitText(long, 100)
		require.Len(t, chunks, 1)
		assert.Equal(t, long, chunks[0].Text)
	})

	t.Run("whitespace only yields nothing", func(t *testing.T) {
		assert.Empty(t, SplitText("  \n\n\t\n\n  ", 100))
	})
}
