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

func TestShareRepoCreateAndGet(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares := repo.NewShareRepo(db)
	ctx := context.Background()

	userShare := &model.Share{
		ID:        "share-1",
		FileID:    "file-1",
		OwnerID:   "alice",
		Kind:      model.ShareKindUser,
		GrantedTo: []string{"bob", "carol", "bob"},
		ExpiresAt: 0,
		Ctime:     100,
	}
	require.NoError(t, shares.Create(ctx, userShare))

	fetched, err := shares.GetByID(ctx, "share-1")
	require.NoError(t, err)
	require.Equal(t, model.ShareKindUser, fetched.Kind)
	require.ElementsMatch(t, []string{"bob", "carol"}, fetched.GrantedTo)
	require.Empty(t, fetched.LinkToken)

	linkShare := &model.Share{
		ID:        "share-2",
		FileID:    "file-1",
		OwnerID:   "alice",
		Kind:      model.ShareKindLink,
		LinkToken: "token-abc",
		ExpiresAt: 200,
		Ctime:     101,
	}
	require.NoError(t, shares.Create(ctx, linkShare))

	byToken, err := shares.GetByToken(ctx, "token-abc")
	require.NoError(t, err)
	require.Equal(t, "share-2", byToken.ID)
	require.Equal(t, int64(200), byToken.ExpiresAt)

	_, err = shares.GetByToken(ctx, "never-issued")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestShareRepoLinkTokenUnique(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares := repo.NewShareRepo(db)
	ctx := context.Background()

	first := &model.Share{ID: "s1", FileID: "f1", OwnerID: "alice", Kind: model.ShareKindLink, LinkToken: "dup", Ctime: 1}
	require.NoError(t, shares.Create(ctx, first))

	second := &model.Share{ID: "s2", FileID: "f2", OwnerID: "alice", Kind: model.ShareKindLink, LinkToken: "dup", Ctime: 2}
	require.ErrorIs(t, shares.Create(ctx, second), appErr.ErrConflict)

	// user shares carry no token and never collide with each other
	u1 := &model.Share{ID: "s3", FileID: "f1", OwnerID: "alice", Kind: model.ShareKindUser, GrantedTo: []string{"bob"}, Ctime: 3}
	u2 := &model.Share{ID: "s4", FileID: "f2", OwnerID: "alice", Kind: model.ShareKindUser, GrantedTo: []string{"bob"}, Ctime: 4}
	require.NoError(t, shares.Create(ctx, u1))
	require.NoError(t, shares.Create(ctx, u2))
}

func TestShareRepoListByFileNewestFirst(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares := repo.NewShareRepo(db)
	ctx := context.Background()

	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s1", FileID: "f1", OwnerID: "alice", Kind: model.ShareKindUser, GrantedTo: []string{"bob"}, Ctime: 1}))
	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s2", FileID: "f1", OwnerID: "alice", Kind: model.ShareKindLink, LinkToken: "t2", Ctime: 2}))
	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s3", FileID: "f2", OwnerID: "alice", Kind: model.ShareKindLink, LinkToken: "t3", Ctime: 3}))

	items, err := shares.ListByFile(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "s2", items[0].ID)
	require.Equal(t, "s1", items[1].ID)
	require.Equal(t, []string{"bob"}, items[1].GrantedTo)
}

func TestShareRepoListAccessibleTo(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares := repo.NewShareRepo(db)
	ctx := context.Background()

	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s1", FileID: "f1", OwnerID: "alice", Kind: model.ShareKindUser, GrantedTo: []string{"bob"}, Ctime: 1}))
	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s2", FileID: "f2", OwnerID: "alice", Kind: model.ShareKindLink, LinkToken: "t1", Ctime: 2}))

	// with link visibility: bob sees his grant plus every link share
	items, err := shares.ListAccessibleTo(ctx, "bob", true)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// without: only the direct grant
	items, err = shares.ListAccessibleTo(ctx, "bob", false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "s1", items[0].ID)

	// an uninvolved user still sees link shares under the open policy
	items, err = shares.ListAccessibleTo(ctx, "mallory", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "s2", items[0].ID)

	items, err = shares.ListAccessibleTo(ctx, "mallory", false)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestShareRepoDeleteAndCascade(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares := repo.NewShareRepo(db)
	ctx := context.Background()

	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s1", FileID: "f1", OwnerID: "alice", Kind: model.ShareKindUser, GrantedTo: []string{"bob"}, Ctime: 1}))
	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s2", FileID: "f1", OwnerID: "alice", Kind: model.ShareKindLink, LinkToken: "t1", Ctime: 2}))
	require.NoError(t, shares.Create(ctx, &model.Share{ID: "s3", FileID: "f2", OwnerID: "alice", Kind: model.ShareKindLink, LinkToken: "t2", Ctime: 3}))

	require.NoError(t, shares.Delete(ctx, "s1"))
	_, err := shares.GetByID(ctx, "s1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, shares.Delete(ctx, "s1"), appErr.ErrNotFound)

	require.NoError(t, shares.DeleteByFileTx(ctx, db, "f1"))
	items, err := shares.ListByFile(ctx, "f1")
	require.NoError(t, err)
	require.Empty(t, items)

	// shares on other files survive the cascade
	remaining, err := shares.GetByID(ctx, "s3")
	require.NoError(t, err)
	require.Equal(t, "t2", remaining.LinkToken)
}
