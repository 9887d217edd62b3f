package service_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Devsama007/File-Share/internal/config"
	"github.com/Devsama007/File-Share/internal/filestore"
	"github.com/Devsama007/File-Share/internal/model"
	appErr "github.com/Devsama007/File-Share/internal/pkg/errors"
	"github.com/Devsama007/File-Share/internal/pkg/timeutil"
	"github.com/Devsama007/File-Share/internal/repo"
	"github.com/Devsama007/File-Share/internal/service"
	"github.com/Devsama007/File-Share/test/testutil"
)

type blob struct {
	*bytes.Reader
}

func (blob) Close() error { return nil }

type fixture struct {
	files  *service.FileService
	shares *service.ShareService
}

func newFixture(t *testing.T, linkVisible bool) *fixture {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	fileRepo := repo.NewFileRepo(db)
	shareRepo := repo.NewShareRepo(db)
	policy := service.AccessPolicy{LinkSharesVisibleToAll: linkVisible}
	return &fixture{
		files:  service.NewFileService(db, fileRepo, shareRepo, store, policy),
		shares: service.NewShareService(fileRepo, shareRepo),
	}
}

func (f *fixture) upload(t *testing.T, owner, name string, content []byte) *model.File {
	t.Helper()
	file, err := f.files.Upload(context.Background(), service.UploadInput{
		OwnerID:      owner,
		OriginalName: name,
		DeclaredType: "text/plain",
		Size:         int64(len(content)),
		Content:      blob{bytes.NewReader(content)},
	})
	require.NoError(t, err)
	return file
}

func TestUserShareLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	fileF := f.upload(t, "alice", "notes.txt", []byte("shared notes"))

	_, err := f.shares.CreateUserShare(ctx, "alice", fileF.ID, []string{"bob"}, 0)
	require.NoError(t, err)

	sharedWithBob, err := f.files.ListShared(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, sharedWithBob, 1)
	require.Equal(t, fileF.ID, sharedWithBob[0].ID)

	// bob can download, carol cannot
	got, stream, err := f.files.Download(ctx, "bob", fileF.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	require.Equal(t, []byte("shared notes"), data)
	require.Equal(t, "notes.txt", got.OriginalName)

	_, _, err = f.files.Download(ctx, "carol", fileF.ID)
	require.ErrorIs(t, err, appErr.ErrForbidden)

	// owner deletes; bob's view empties and direct access is gone
	require.NoError(t, f.files.Delete(ctx, "alice", fileF.ID))

	sharedWithBob, err = f.files.ListShared(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, sharedWithBob)

	_, _, err = f.files.Download(ctx, "bob", fileF.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestExpiredUserShare(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	fileF := f.upload(t, "alice", "old.txt", []byte("stale"))
	_, err := f.shares.CreateUserShare(ctx, "alice", fileF.ID, []string{"bob"}, timeutil.NowUnix()-60)
	require.NoError(t, err)

	// the record persists but every path through it denies
	shared, err := f.files.ListShared(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, shared)

	_, _, err = f.files.Download(ctx, "bob", fileF.ID)
	require.ErrorIs(t, err, appErr.ErrExpired)

	listed, err := f.shares.ListByFile(ctx, "alice", fileF.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestLinkShareLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	fileF := f.upload(t, "alice", "pic.png", []byte("pixels"))

	share, err := f.shares.CreateLinkShare(ctx, "alice", fileF.ID, 0)
	require.NoError(t, err)
	require.Len(t, share.LinkToken, 32)

	other, err := f.shares.CreateLinkShare(ctx, "alice", fileF.ID, 0)
	require.NoError(t, err)
	require.NotEqual(t, share.LinkToken, other.LinkToken)

	_, resolved, err := f.shares.ResolveByToken(ctx, share.LinkToken)
	require.NoError(t, err)
	require.Equal(t, fileF.ID, resolved.ID)

	gotFile, stream, err := f.files.DownloadByToken(ctx, share.LinkToken)
	require.NoError(t, err)
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	require.Equal(t, []byte("pixels"), data)
	require.Equal(t, fileF.ID, gotFile.ID)

	_, _, err = f.shares.ResolveByToken(ctx, "0000000000000000000000000000dead")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestExpiredLinkShare(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	fileF := f.upload(t, "alice", "temp.txt", []byte("short lived"))
	share, err := f.shares.CreateLinkShare(ctx, "alice", fileF.ID, timeutil.NowUnix()-1)
	require.NoError(t, err)

	_, _, err = f.shares.ResolveByToken(ctx, share.LinkToken)
	require.ErrorIs(t, err, appErr.ErrExpired)
	_, _, err = f.files.DownloadByToken(ctx, share.LinkToken)
	require.ErrorIs(t, err, appErr.ErrExpired)
}

func TestLinkVisibilityPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("visible to all", func(t *testing.T) {
		f := newFixture(t, true)
		fileF := f.upload(t, "alice", "open.txt", []byte("x"))
		_, err := f.shares.CreateLinkShare(ctx, "alice", fileF.ID, 0)
		require.NoError(t, err)

		shared, err := f.files.ListShared(ctx, "mallory")
		require.NoError(t, err)
		require.Len(t, shared, 1)

		_, stream, err := f.files.Download(ctx, "mallory", fileF.ID)
		require.NoError(t, err)
		require.NoError(t, stream.Close())
	})

	t.Run("token required", func(t *testing.T) {
		f := newFixture(t, false)
		fileF := f.upload(t, "alice", "closed.txt", []byte("x"))
		share, err := f.shares.CreateLinkShare(ctx, "alice", fileF.ID, 0)
		require.NoError(t, err)

		shared, err := f.files.ListShared(ctx, "mallory")
		require.NoError(t, err)
		require.Empty(t, shared)

		_, _, err = f.files.Download(ctx, "mallory", fileF.ID)
		require.ErrorIs(t, err, appErr.ErrForbidden)

		// the token path still works
		_, stream, err := f.files.DownloadByToken(ctx, share.LinkToken)
		require.NoError(t, err)
		require.NoError(t, stream.Close())
	})
}

func TestShareAuthorization(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	fileF := f.upload(t, "alice", "secret.txt", []byte("owner only"))

	_, err := f.shares.CreateUserShare(ctx, "bob", fileF.ID, []string{"carol"}, 0)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = f.shares.CreateLinkShare(ctx, "bob", fileF.ID, 0)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = f.shares.ListByFile(ctx, "bob", fileF.ID)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	require.ErrorIs(t, f.files.Delete(ctx, "bob", fileF.ID), appErr.ErrForbidden)

	share, err := f.shares.CreateUserShare(ctx, "alice", fileF.ID, []string{"bob"}, 0)
	require.NoError(t, err)
	require.ErrorIs(t, f.shares.Delete(ctx, "bob", share.ID), appErr.ErrForbidden)
	require.NoError(t, f.shares.Delete(ctx, "alice", share.ID))

	_, err = f.shares.CreateUserShare(ctx, "alice", "missing-file", []string{"bob"}, 0)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestOwnLinkShareAppearsInSharedView(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	fileF := f.upload(t, "alice", "mine.txt", []byte("x"))

	// before any share exists the shared view is empty
	shared, err := f.files.ListShared(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, shared)

	_, err = f.shares.CreateLinkShare(ctx, "alice", fileF.ID, 0)
	require.NoError(t, err)

	own, err := f.files.ListOwn(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, own, 1)

	// the shared view follows the ledger, so the owner's own link share
	// surfaces the file for them too
	shared, err = f.files.ListShared(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	require.Equal(t, fileF.ID, shared[0].ID)
}

func TestUploadRemovesBlobWhenRegistryWriteFails(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	dir := t.TempDir()
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	files := service.NewFileService(conn, repo.NewFileRepo(conn), repo.NewShareRepo(conn), store, service.AccessPolicy{LinkSharesVisibleToAll: true})

	// sanity: a normal upload lands exactly one blob in the store dir
	file, err := files.Upload(ctx, service.UploadInput{
		OwnerID:      "dave",
		OriginalName: "kept.txt",
		DeclaredType: "text/plain",
		Size:         4,
		Content:      blob{bytes.NewReader([]byte("data"))},
	})
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, files.Delete(ctx, "dave", file.ID))

	// a closed pool makes the registry insert fail after the blob is saved;
	// the compensating delete must leave the store dir empty
	require.NoError(t, conn.Close())
	_, err = files.Upload(ctx, service.UploadInput{
		OwnerID:      "dave",
		OriginalName: "lost.txt",
		DeclaredType: "text/plain",
		Size:         6,
		Content:      blob{bytes.NewReader([]byte("orphan"))},
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, appErr.ErrStorage)
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
