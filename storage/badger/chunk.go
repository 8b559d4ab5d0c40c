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


package badger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/paperit/core"
	"github.com/poiesic/paperit/storage"
)

// ChunkRepository implements storage.ChunkRepository on top of BadgerDB.
type ChunkRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository using the given backend.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &ChunkRepository{
		backend: backend,
		logger:  slog.Default().With("component", "chunk-repository"),
	}, nil
}

// Close is a no-op; the backend owns the database lifecycle.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocument stores a document together with its chunks. Re-adding an
// existing document ID replaces the previous document and chunks in a single
// transaction, so readers never observe a half-replaced document.
func (r *ChunkRepository) AddDocument(ctx context.Context, doc *core.Document, chunks ...*core.Chunk) error {
	if doc.InsertedAt.IsZero() {
		doc.InsertedAt = time.Now().UTC()
	}
	doc.ChunkCount = len(chunks)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		// Drop any chunks from a previous version of this document
		stale, err := collectKeys(tx, makePartialChunkKey(doc.Id))
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		for _, chunk := range chunks {
			key := makeChunkKey(chunk.DocumentId, chunk.Ordinal)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument removes a document and all of its chunks.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		docKey := makeDocumentKey(id)
		if _, err := tx.Get(docKey); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(docKey); err != nil {
			return err
		}

		keys, err := collectKeys(tx, makePartialChunkKey(id))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *ChunkRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments retrieves all documents, ordered by name then ID.
// The ordering is deterministic so callers can fan out positionally.
func (r *ChunkRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				doc, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(docs, func(a, b *core.Document) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		}
		return 0
	})
	return docs, nil
}

// GetChunks retrieves a document's chunks in source order.
func (r *ChunkRepository) GetChunks(ctx context.Context, docID core.ID) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Key order is (documentID, ordinal), so iteration yields source order
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// SearchAll finds the topK chunks most similar to the query vector across all documents.
func (r *ChunkRepository) SearchAll(ctx context.Context, vector []float32, topK int) ([]core.ScoredResult, error) {
	return r.search(ctx, nil, vector, topK)
}

// SearchWithin finds the topK chunks most similar to the query vector within the given documents.
func (r *ChunkRepository) SearchWithin(ctx context.Context, docIDs []core.ID, vector []float32, topK int) ([]core.ScoredResult, error) {
	return r.search(ctx, docIDs, vector, topK)
}

// search scores chunks by dot product against the query vector.
// Vectors are assumed normalized, so the dot product is the cosine similarity.
func (r *ChunkRepository) search(ctx context.Context, docIDs []core.ID, vector []float32, topK int) ([]core.ScoredResult, error) {
	if topK < 1 {
		return nil, storage.ErrInvalidQuery
	}

	var results []core.ScoredResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		names, err := readDocumentNames(tx)
		if err != nil {
			return err
		}

		// Restrict the scan to the requested documents when a filter is given
		prefixes := [][]byte{[]byte(chunkRecordPrefix + ":")}
		if docIDs != nil {
			prefixes = prefixes[:0]
			for _, id := range docIDs {
				prefixes = append(prefixes, makePartialChunkKey(id))
			}
		}

		for _, prefix := range prefixes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				err := iter.Item().Value(func(val []byte) error {
					chunk, err := storage.UnmarshalChunk(val)
					if err != nil {
						return err
					}

					// Chunks without embeddings cannot be scored
					if len(chunk.Vector) == 0 {
						return nil
					}

					score := dotProduct(vector, chunk.Vector)
					if score <= 0 {
						return nil
					}

					results = append(results, core.ScoredResult{
						DocumentId:   chunk.DocumentId,
						DocumentName: names[chunk.DocumentId],
						Ordinal:      chunk.Ordinal,
						Page:         chunk.Page,
						Text:         chunk.Text,
						Score:        score,
					})
					return nil
				})
				if err != nil {
					iter.Close()
					return err
				}
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending with a deterministic tie-break
	slices.SortFunc(results, func(a, b core.ScoredResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		switch {
		case a.DocumentId < b.DocumentId:
			return -1
		case a.DocumentId > b.DocumentId:
			return 1
		}
		return a.Ordinal - b.Ordinal
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// readDocumentNames loads the id -> name mapping for result assembly.
func readDocumentNames(tx *badger.Txn) (map[core.ID]string, error) {
	names := make(map[core.ID]string)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentRecordPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			doc, err := storage.UnmarshalDocument(val)
			if err != nil {
				return err
			}
			names[doc.Id] = doc.Name
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return names, nil
}

// collectKeys gathers all keys under a prefix. Keys are copied because they
// are deleted after iteration within the same transaction.
func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
