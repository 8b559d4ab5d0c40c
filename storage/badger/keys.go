package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/paperit/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	chunkRecordPrefix    = "chkrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentID:ordinal
func makeChunkKey(docID core.ID, ordinal int) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for document ID + 8 bytes for ordinal
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort preserves source order
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	return buf
}

// makePartialChunkKey generates a partial key for per-document chunk scans.
// Format: prefix:documentID
func makePartialChunkKey(docID core.ID) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for document ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort preserves source order
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}
