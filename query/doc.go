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


// Package query routes natural-language questions to retrieval strategies
// and executes them.
//
// A fixed, ordered rule table of trigger phrases classifies each question
// into one of five strategies: multi-paper comparison, hybrid
// semantic-plus-keyword search, broad summary, detailed analysis, or plain
// vector search. The Router dispatches to the selected strategy, records a
// reasoning trace, and degrades strategy failures into formatted answers so
// a caller always receives a response.
package query
