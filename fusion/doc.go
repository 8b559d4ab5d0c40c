// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fusion merges semantic and keyword retrieval results into a single
// ranked list.
//
// Vector similarity and BM25 live on incompatible scales, so each side is
// first normalized by its own maximum before being combined with a weight
// alpha. Results from both sides that share a text prefix are treated as the
// same underlying chunk and accumulate contributions from each side, with
// provenance flags recording where they came from.
package fusion
