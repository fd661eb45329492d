package service_test

import (
	"strings"
	"testing"

	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestContentSegments(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int64
	}{
		{"empty content", "", 0},
		{"single character", "a", 1},
		{"exactly one segment", strings.Repeat("a", 160), 1},
		{"one over a segment", strings.Repeat("a", 161), 2},
		{"two full segments", strings.Repeat("a", 320), 2},
		{"321 characters spans three segments", strings.Repeat("a", 321), 3},
		{"max length", strings.Repeat("a", 1600), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, service.ContentSegments(tt.content))
		})
	}
}

func TestMessageCost(t *testing.T) {
	t.Run("charges per segment per recipient", func(t *testing.T) {
		content := strings.Repeat("x", 321)

		cost := service.MessageCost(content, 8)

		assert.Equal(t, int64(24), cost)
	})

	t.Run("single segment to one recipient costs one credit", func(t *testing.T) {
		assert.Equal(t, int64(1), service.MessageCost("hello", 1))
	})

	t.Run("zero recipients costs nothing", func(t *testing.T) {
		assert.Equal(t, int64(0), service.MessageCost("hello", 0))
	})

	t.Run("multibyte content is counted in characters", func(t *testing.T) {
		content := strings.Repeat("ሰ", 161)

		assert.Equal(t, int64(2), service.MessageCost(content, 1))
	})
}
