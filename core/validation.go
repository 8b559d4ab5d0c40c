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


package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Id must match IDFromContent(Name)
//
// NOT validated:
//   - ChunkCount (populated by the ingestion pipeline)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentName)
	}

	if doc.Id != IDFromContent(doc.Name) {
		return fmt.Errorf("%w: id does not match name hash", ErrInvalidDocument)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty after trimming whitespace
//   - DocumentId must be set
//   - Ordinal must not be negative
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding step runs)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id not set", ErrInvalidChunk)
	}

	if chunk.Ordinal < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidOrdinal)
	}

	return nil
}
