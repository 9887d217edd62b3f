package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Devsama007/File-Share/internal/filestore"
	"github.com/Devsama007/File-Share/internal/model"
	"github.com/Devsama007/File-Share/internal/pkg/dbutil"
	appErr "github.com/Devsama007/File-Share/internal/pkg/errors"
	"github.com/Devsama007/File-Share/internal/pkg/timeutil"
	"github.com/Devsama007/File-Share/internal/repo"
)

type FileService struct {
	db     *sql.DB
	files  *repo.FileRepo
	shares *repo.ShareRepo
	store  filestore.Store
	policy AccessPolicy
}

func NewFileService(db *sql.DB, files *repo.FileRepo, shares *repo.ShareRepo, store filestore.Store, policy AccessPolicy) *FileService {
	return &FileService{db: db, files: files, shares: shares, store: store, policy: policy}
}

type UploadInput struct {
	OwnerID      string
	OriginalName string
	DeclaredType string
	Size         int64
	Content      filestore.ReadSeekCloser
}

// Upload stores the blob first, then creates the registry row. If the row
// cannot be written the blob is removed again so no orphan stays reachable.
func (s *FileService) Upload(ctx context.Context, input UploadInput) (*model.File, error) {
	if input.OwnerID == "" || input.OriginalName == "" || input.Content == nil {
		return nil, appErr.ErrInvalid
	}
	mimeType, err := detectMimeType(input.Content, input.DeclaredType)
	if err != nil {
		return nil, appErr.ErrInvalid
	}
	key := buildFileKey(input.OwnerID, input.OriginalName)
	if err := s.store.Save(ctx, key, input.Content, input.Size); err != nil {
		return nil, fmt.Errorf("%w: save blob: %v", appErr.ErrStorage, err)
	}
	file := &model.File{
		ID:           newID(),
		OwnerID:      input.OwnerID,
		OriginalName: input.OriginalName,
		MimeType:     mimeType,
		SizeBytes:    input.Size,
		FileKey:      key,
		Ctime:        timeutil.NowUnix(),
	}
	if err := s.files.Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logutil.GetLogger(ctx).Error("remove blob after failed registry write",
				zap.String("file_key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return file, nil
}

func (s *FileService) ListOwn(ctx context.Context, ownerID string) ([]model.File, error) {
	return s.files.ListByOwner(ctx, ownerID)
}

// ListShared returns the files visible to userID through the share ledger:
// valid user-kind grants naming them plus, under the visibility policy,
// every valid link share. The listing is derived from the ledger alone, so
// a user who link-shares their own file sees it here as well. Dangling file
// references are dropped silently.
func (s *FileService) ListShared(ctx context.Context, userID string) ([]model.File, error) {
	shares, err := s.shares.ListAccessibleTo(ctx, userID, s.policy.LinkSharesVisibleToAll)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	seen := make(map[string]struct{}, len(shares))
	fileIDs := make([]string, 0, len(shares))
	for i := range shares {
		if !IsValidShare(&shares[i], now) {
			continue
		}
		if _, ok := seen[shares[i].FileID]; ok {
			continue
		}
		seen[shares[i].FileID] = struct{}{}
		fileIDs = append(fileIDs, shares[i].FileID)
	}
	return s.files.ListByIDs(ctx, fileIDs)
}

// Download resolves read access for userID and opens the blob stream.
func (s *FileService) Download(ctx context.Context, userID, fileID string) (*model.File, io.ReadCloser, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !CanMutate(userID, file) {
		shares, err := s.shares.ListByFile(ctx, fileID)
		if err != nil {
			return nil, nil, err
		}
		switch ResolveRead(userID, file, shares, timeutil.NowUnix(), s.policy) {
		case DecisionAllow:
		case DecisionExpired:
			return nil, nil, appErr.ErrExpired
		default:
			return nil, nil, appErr.ErrForbidden
		}
	}
	return s.openBlob(ctx, file)
}

// DownloadByToken is the bearer-capability path: possession of the token is
// the whole check, no identity or canRead involved.
func (s *FileService) DownloadByToken(ctx context.Context, token string) (*model.File, io.ReadCloser, error) {
	share, err := s.shares.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if !IsValidShare(share, timeutil.NowUnix()) {
		return nil, nil, appErr.ErrExpired
	}
	file, err := s.files.GetByID(ctx, share.FileID)
	if err != nil {
		return nil, nil, err
	}
	return s.openBlob(ctx, file)
}

// Delete removes the blob, then the registry row and every share on it in
// one transaction, so readers never see a deleted file with live shares.
// Owner-only.
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if !CanMutate(userID, file) {
		return appErr.ErrForbidden
	}
	if err := s.store.Delete(ctx, file.FileKey); err != nil {
		return fmt.Errorf("%w: delete blob: %v", appErr.ErrStorage, err)
	}
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.files.DeleteTx(ctx, tx, fileID); err != nil {
			return err
		}
		return s.shares.DeleteByFileTx(ctx, tx, fileID)
	})
}

func (s *FileService) openBlob(ctx context.Context, file *model.File) (*model.File, io.ReadCloser, error) {
	stream, err := s.store.Open(ctx, file.FileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open blob: %v", appErr.ErrStorage, err)
	}
	return file, stream, nil
}

// detectMimeType sniffs magic numbers first, then falls back to net/http
// detection and finally the type the client declared.
func detectMimeType(r filestore.ReadSeekCloser, declared string) (string, error) {
	buf := make([]byte, 512)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if t, err := filetype.Match(buf[:n]); err == nil && t != filetype.Unknown {
		return t.MIME.Value, nil
	}
	detected := http.DetectContentType(buf[:n])
	if detected == "application/octet-stream" && declared != "" {
		return declared, nil
	}
	return detected, nil
}

func buildFileKey(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	key := ownerID + "_" + newID()
	if ext == "" {
		return key
	}
	return key + ext
}
