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


// Package ingestion handles adding papers to and removing papers from the
// corpus.
//
// The pipeline embeds chunk text in concurrent batches, persists the
// document and its chunks as one atomic replacement, and keeps the keyword
// index in step with storage. Embedding failures degrade to empty vectors
// rather than failing the ingest.
package ingestion
