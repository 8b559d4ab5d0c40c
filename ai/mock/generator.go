package mock

import (
	"context"
	"strings"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default canned behavior.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	callCount int
	prompts   []string
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a canned completion that echoes the first line of the prompt.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	firstLine, _, _ := strings.Cut(prompt, "\n")
	return "mock response to: " + firstLine, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Prompts returns the prompts passed to Generate, in call order.
func (m *MockGenerator) Prompts() []string {
	return m.prompts
}

// Reset clears the call count, recorded prompts, and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
}
