package storage

import (
	"testing"
	"time"

	"github.com/poiesic/paperit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	doc := &core.Document{
		Id:         core.IDFromContent("paper.pdf"),
		Name:       "paper.pdf",
		ChunkCount: 17,
		InsertedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)

	assert.Equal(t, doc.Id, decoded.Id)
	assert.Equal(t, doc.Name, decoded.Name)
	assert.Equal(t, doc.ChunkCount, decoded.ChunkCount)
	assert.True(t, doc.InsertedAt.Equal(decoded.InsertedAt))
}

func TestChunkRoundTrip(t *testing.T) {
	chunk := &core.Chunk{
		DocumentId: core.ID(99),
		Ordinal:    4,
		Text:       "retrieval augmented generation",
		Page:       12,
		Vector:     []float32{0.1, -0.5, 0.9},
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)

	assert.Equal(t, chunk.DocumentId, decoded.DocumentId)
	assert.Equal(t, chunk.Ordinal, decoded.Ordinal)
	assert.Equal(t, chunk.Text, decoded.Text)
	assert.Equal(t, chunk.Page, decoded.Page)
	assert.Equal(t, chunk.Vector, decoded.Vector)
}

func TestUnmarshalCorruptData(t *testing.T) {
	_, err := UnmarshalDocument([]byte{0xff})
	assert.Error(t, err)

	_, err = UnmarshalChunk([]byte{})
	assert.Error(t, err)
}
