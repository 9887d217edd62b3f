package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Devsama007/File-Share/internal/model"
	appErr "github.com/Devsama007/File-Share/internal/pkg/errors"
	"github.com/Devsama007/File-Share/internal/repo"
	"github.com/Devsama007/File-Share/test/testutil"
)

func TestUserRepoCreateAndLookup(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	ctx := context.Background()

	user := &model.User{
		ID:           "user-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Ctime:        1,
		Mtime:        1,
	}
	require.NoError(t, users.Create(ctx, user))

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", byEmail.ID)
	require.Equal(t, "Alice", byEmail.Name)

	byID, err := users.GetByID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", byID.Email)

	_, err = users.GetByID(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	dup := &model.User{ID: "user-2", Email: "alice@example.com", PasswordHash: "hash", Ctime: 2, Mtime: 2}
	require.ErrorIs(t, users.Create(ctx, dup), appErr.ErrConflict)
}
