package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitChunksWindows(t *testing.T) {
	text := strings.Repeat("a", 500) + strings.Repeat("b", 500) + strings.Repeat("c", 200)

	chunks := SplitChunks(text, 500)
	require.Len(t, chunks, 3)
	require.Equal(t, strings.Repeat("a", 500), chunks[0].Text)
	require.Equal(t, strings.Repeat("b", 500), chunks[1].Text)
	require.Equal(t, strings.Repeat("c", 200), chunks[2].Text)
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.SourceOrder)
	}
}

func TestSplitChunksEmptyText(t *testing.T) {
	require.Nil(t, SplitChunks("", 500))
}

func TestSplitChunksDefaultWindow(t *testing.T) {
	text := strings.Repeat("x", DefaultChunkSize+1)

	chunks := SplitChunks(text, 0)
	require.Len(t, chunks, 2)
	require.Len(t, []rune(chunks[0].Text), DefaultChunkSize)
	require.Equal(t, "x", chunks[1].Text)
}

func TestSplitChunksCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 10)

	chunks := SplitChunks(text, 4)
	require.Len(t, chunks, 3)
	require.Equal(t, "éééé", chunks[0].Text)
	require.Equal(t, "éé", chunks[2].Text)
}

func TestSplitChunksDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 100)

	first := SplitChunks(text, 133)
	second := SplitChunks(text, 133)
	require.Equal(t, first, second)
}
