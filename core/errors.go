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

import "errors"

// Domain errors
var (
	// ErrEmptyCorpus indicates that no documents have been indexed yet.
	// Routing must not proceed to retrieval when the corpus is empty.
	ErrEmptyCorpus = errors.New("no documents indexed")

	// ErrInsufficientDocuments indicates that a cross-document comparison
	// was requested with fewer than the required number of documents.
	ErrInsufficientDocuments = errors.New("at least two documents required for comparison")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyDocumentName indicates the document Name field is empty.
	ErrEmptyDocumentName = errors.New("document name cannot be empty")

	// ErrEmptyChunkText indicates the chunk Text field is empty after trimming.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrInvalidOrdinal indicates a negative chunk ordinal.
	ErrInvalidOrdinal = errors.New("chunk ordinal cannot be negative")
)
