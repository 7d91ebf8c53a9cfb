package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	// 50 draws from a million-value space collapsing to one value would
	// mean the source is not random at all
	require.Greater(t, len(seen), 1)
}
