package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThinking(t *testing.T) {
	opts := TerminalOptions{Style: StyleNoTTY, OpenMarker: "<think>", CloseMarker: "</think>"}

	t.Run("Renders Segment", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteThinking(&buf, "<think>\nFirst, check the **inputs**.\n</think>", opts))

		out := buf.String()
		assert.Contains(t, out, "Thought Process")
		assert.Contains(t, out, "inputs")
		assert.NotContains(t, out, "<think>")
		assert.NotContains(t, out, "</think>")
	})

	t.Run("Empty Segment", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteThinking(&buf, "<think>\n \n</think>", opts))
		assert.Empty(t, buf.String())

		require.NoError(t, WriteThinking(&buf, "", opts))
		assert.Empty(t, buf.String())
	})
}

func TestStripMarkers(t *testing.T) {
	assert.Equal(t, "a", stripMarkers("<think>a</think>", "<think>", "</think>"))
	assert.Equal(t, "a  b</think>", stripMarkers("<think>a </think> b</think>", "<think>", "</think>"))
	assert.Equal(t, "plan", stripMarkers("  <think>plan", "<think>", "</think>"))
	assert.Equal(t, "<think>plan", stripMarkers("<think>plan", "", ""))
}
