package handler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatSizeLimit(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0B"},
		{in: 512, want: "512B"},
		{in: 300 * 1024, want: "300KB"},
		{in: 4 * 1024 * 1024, want: "4MB"},
		{in: 3*1024*1024 + 512*1024, want: "3.5MB"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatSizeLimit(tt.in))
	}
}
