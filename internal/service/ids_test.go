package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/retrieval"
)

func TestNewAPIKeyShape(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		key := newAPIKey()
		require.Len(t, key, 32)
		for _, r := range key {
			isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			require.True(t, isAlnum, "unexpected character %q in key", r)
		}
		_, dup := seen[key]
		require.False(t, dup)
		seen[key] = struct{}{}
	}
}

func TestNewIDShape(t *testing.T) {
	id := newID()
	require.Len(t, id, 32)
	require.NotEqual(t, id, newID())
}

func TestUniqueDocIDsKeepRankOrder(t *testing.T) {
	hits := []retrieval.Hit{
		{ChunkID: 1, DocumentID: 7},
		{ChunkID: 2, DocumentID: 3},
		{ChunkID: 3, DocumentID: 7},
	}
	ids := uniqueDocIDs(hits)
	require.Equal(t, []int64{7, 3}, ids)
	require.Equal(t, "7,3", joinDocIDs(ids))
}

func TestJoinDocIDsEmpty(t *testing.T) {
	require.Equal(t, "", joinDocIDs(nil))
}
