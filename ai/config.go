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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// GeneratorHost is the base URL for the text generation service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	GeneratorHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// GeneratorModel is the model identifier to use for text generation.
	// Example: "llama-3.3-70b-versatile", "gpt-4o-mini"
	GeneratorModel string

	// EmbeddingDim is the dimensionality of the embedding vectors.
	// Used for the zero-vector fallback when the embedding service fails.
	// Default: 384
	EmbeddingDim int

	// Temperature is the sampling temperature for generation.
	// Default: 0.7
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate per call.
	// Default: 1024
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGeneratorHost sets the generator service host URL.
func WithGeneratorHost(host string) ConfigOption {
	return func(c *Config) {
		c.GeneratorHost = host
	}
}

// WithHost sets both embedding and generator hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GeneratorHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGeneratorModel sets the generator model identifier.
func WithGeneratorModel(model string) ConfigOption {
	return func(c *Config) {
		c.GeneratorModel = model
	}
}

// WithEmbeddingDim sets the embedding vector dimensionality.
func WithEmbeddingDim(dim int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDim = dim
	}
}

// WithTemperature sets the generation sampling temperature.
func WithTemperature(temp float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temp
	}
}

// WithMaxTokens sets the maximum tokens generated per call.
func WithMaxTokens(max int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = max
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and generation use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		GeneratorHost:  defaultHost,
		EmbeddingModel: "embeddinggemma",
		GeneratorModel: "qwen2.5:3b",
		EmbeddingDim:   384,
		Temperature:    0.7,
		MaxTokens:      1024,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	// Ensure EmbeddingHost ends with /v1 for OpenAI-compatible APIs
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	// Ensure GeneratorHost ends with /v1 for OpenAI-compatible APIs
	if c.GeneratorHost != "" && !strings.HasSuffix(c.GeneratorHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.GeneratorHost = strings.TrimSuffix(c.GeneratorHost, "/")
		c.GeneratorHost = c.GeneratorHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GeneratorHost == "" {
		return errors.New("ai config: GeneratorHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GeneratorModel == "" {
		return errors.New("ai config: GeneratorModel is required")
	}
	if c.EmbeddingDim < 1 {
		return errors.New("ai config: EmbeddingDim must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
