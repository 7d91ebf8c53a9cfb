package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

func TestAPIKeyRepoGetUnknown(t *testing.T) {
	conn := testDB(t)
	keys := NewAPIKeyRepo(conn)
	_, err := keys.GetByKey(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrTenantNotFound)
}

func TestAPIKeyRepoOwnership(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	seedTenant(t, conn, "key-a")
	keys := NewAPIKeyRepo(conn)

	// updates scoped to another user must not touch the credential
	err := keys.UpdateInstructions(ctx, "someone-else", "key-a", "hacked")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, keys.UpdateInstructions(ctx, "user-key-a", "key-a", "be concise"))
	key, err := keys.GetByKey(ctx, "key-a")
	require.NoError(t, err)
	require.Equal(t, "be concise", key.Instructions)
}

func TestAPIKeyRepoUsageAccounting(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	seedTenant(t, conn, "key-a")
	keys := NewAPIKeyRepo(conn)

	require.NoError(t, keys.UpdateTokenLimit(ctx, "user-key-a", "key-a", 100))
	require.NoError(t, keys.AddUsage(ctx, "key-a", 30, 7))
	require.NoError(t, keys.AddUsage(ctx, "key-a", 30, 8))

	key, err := keys.GetByKey(ctx, "key-a")
	require.NoError(t, err)
	require.Equal(t, int64(60), key.TokensUsed)
	require.Equal(t, int64(40), key.TokensRemaining())
	require.Equal(t, int64(8), key.LastUsedAt)
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	users := NewUserRepo(conn)

	user := &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", Ctime: 1, Mtime: 1}
	require.NoError(t, users.Create(ctx, user))

	dup := &model.User{ID: "u2", Email: "a@example.com", PasswordHash: "y", Ctime: 2, Mtime: 2}
	require.ErrorIs(t, users.Create(ctx, dup), appErr.ErrConflict)
}

func TestUserRepoMarkVerified(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	users := NewUserRepo(conn)

	user := &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", Ctime: 1, Mtime: 1}
	require.NoError(t, users.Create(ctx, user))
	require.NoError(t, users.MarkVerified(ctx, "u1", 5))

	got, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Verified)
	require.Equal(t, int64(5), got.Mtime)

	require.ErrorIs(t, users.MarkVerified(ctx, "missing", 5), appErr.ErrNotFound)
}
