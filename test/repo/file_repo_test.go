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

func TestFileRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	files := repo.NewFileRepo(db)
	ctx := context.Background()

	file := &model.File{
		ID:           "file-1",
		OwnerID:      "user-1",
		OriginalName: "report.pdf",
		MimeType:     "application/pdf",
		SizeBytes:    1234,
		FileKey:      "user-1_abc.pdf",
		Ctime:        100,
	}
	require.NoError(t, files.Create(ctx, file))

	fetched, err := files.GetByID(ctx, "file-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", fetched.OwnerID)
	require.Equal(t, "report.pdf", fetched.OriginalName)

	_, err = files.GetByID(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, files.DeleteTx(ctx, db, "file-1"))
	_, err = files.GetByID(ctx, "file-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.ErrorIs(t, files.DeleteTx(ctx, db, "file-1"), appErr.ErrNotFound)
}

func TestFileRepoListByOwnerNewestFirst(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	files := repo.NewFileRepo(db)
	ctx := context.Background()

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, files.Create(ctx, &model.File{
			ID:           id,
			OwnerID:      "user-1",
			OriginalName: id + ".txt",
			MimeType:     "text/plain",
			SizeBytes:    1,
			FileKey:      "user-1_" + id,
			Ctime:        int64(100 + i),
		}))
	}
	require.NoError(t, files.Create(ctx, &model.File{
		ID: "other", OwnerID: "user-2", OriginalName: "x", MimeType: "text/plain", SizeBytes: 1, FileKey: "k", Ctime: 999,
	}))

	items, err := files.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "new", items[0].ID)
	require.Equal(t, "mid", items[1].ID)
	require.Equal(t, "old", items[2].ID)

	byIDs, err := files.ListByIDs(ctx, []string{"old", "other", "missing"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)

	empty, err := files.ListByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
