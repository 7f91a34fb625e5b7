package bytes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFmtMem_FormatsCorrectly verifies formatting of disk store sizes.
func TestFmtMem_FormatsCorrectly(t *testing.T) {
	tests := []struct {
		name     string
		bytes    uint64
		expected string
	}{
		{"zero", 0, "0B"},
		{"bytes", 512, "512B"},
		{"kilobytes", 5 * KB, "5KB 0B"},
		{"megabytes", 10 * MB, "10MB 0KB"},
		{"gigabytes", 2 * GB, "2GB 0MB"},
		{"terabytes", 1 * TB, "1TB 0GB"},
		{"mixed KB", 1536, "1KB 512B"},
		{"mixed MB", 10*MB + 512*KB, "10MB 512KB"},
		{"mixed GB", 2*GB + 100*MB, "2GB 100MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, FmtMem(tt.bytes))
		})
	}
}
