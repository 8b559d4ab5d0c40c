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


package query

import (
	"errors"
	"fmt"
)

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrKeywordStoreRequired is returned when a keyword store is not provided.
	ErrKeywordStoreRequired = errors.New("keyword store required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

// RetrievalError reports a failure in an embedding or semantic search call.
// Workflows catch it at their boundary and degrade to a textual answer.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed during %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// SynthesisError reports a failure in a text generation call.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
