package query

import "github.com/poiesic/paperit/core"

// Trace accumulates the reasoning steps produced while answering one query.
// A Trace is not safe for concurrent use; each query builds its own.
type Trace struct {
	steps []core.ReasoningStep
}

// Add appends a reasoning step.
func (t *Trace) Add(step, description string) {
	t.steps = append(t.steps, core.ReasoningStep{
		Step:        step,
		Description: description,
	})
}

// Steps returns the accumulated steps. The slice is never nil so callers
// can serialize it directly.
func (t *Trace) Steps() []core.ReasoningStep {
	if t.steps == nil {
		return []core.ReasoningStep{}
	}
	return t.steps
}

// truncate shortens text to at most limit characters, appending an ellipsis
// when anything was cut.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
