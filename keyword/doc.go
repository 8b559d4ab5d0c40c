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


// Package keyword provides per-document BM25 keyword indexing and search.
//
// Each ingested document gets its own inverted index over its chunks.
// Indexing and querying share one tokenizer (lowercase, whitespace split),
// and scoring follows Okapi BM25 with k1=1.5, b=0.75.
//
// The store is safe for concurrent use: per-document indexes are immutable
// once published, and a rebuild replaces a document's entry atomically
// without disturbing lookups against other documents.
package keyword
