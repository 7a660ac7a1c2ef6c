package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToolNames(t *testing.T) {
	for _, tool := range Tools() {
		parsed, err := ParseTool(tool.String())
		require.NoError(t, err)
		require.Equal(t, tool, parsed)
	}
	_, err := ParseTool("translate")
	require.Error(t, err)
	require.False(t, Tool(7).Valid())
}

func TestQuotaOf(t *testing.T) {
	var q Quota
	q[ToolSummarize] = Usage{Count: 1, Limit: 3}
	require.Equal(t, Usage{Count: 1, Limit: 3}, q.Of(ToolSummarize))
	require.Equal(t, 2, q.Of(ToolSummarize).Remaining())
	require.Equal(t, Usage{}, q.Of(Tool(-1)))
	require.Equal(t, 0, Usage{Count: 4, Limit: 3}.Remaining())
}
