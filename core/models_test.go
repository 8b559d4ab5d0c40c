package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "paper.pdf",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "A Very Long Paper Title That Should Still Hash Consistently Every Time.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("paper-a.pdf")
	id2 := IDFromContent("paper-b.pdf")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}
