package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Devsama007/File-Share/internal/model"
	appErr "github.com/Devsama007/File-Share/internal/pkg/errors"
	"github.com/Devsama007/File-Share/internal/pkg/timeutil"
	"github.com/Devsama007/File-Share/internal/repo"
)

// maxTokenAttempts bounds link token regeneration on the vanishingly rare
// unique-index collision.
const maxTokenAttempts = 5

type ShareService struct {
	files  *repo.FileRepo
	shares *repo.ShareRepo
}

func NewShareService(files *repo.FileRepo, shares *repo.ShareRepo) *ShareService {
	return &ShareService{files: files, shares: shares}
}

// CreateUserShare grants read access on fileID to the given users. Only the
// file's owner may share it; expiresAt == 0 means the grant never lapses.
func (s *ShareService) CreateUserShare(ctx context.Context, ownerID, fileID string, userIDs []string, expiresAt int64) (*model.Share, error) {
	file, err := s.requireOwner(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	share := &model.Share{
		ID:        newID(),
		FileID:    file.ID,
		OwnerID:   ownerID,
		Kind:      model.ShareKindUser,
		GrantedTo: dedupe(userIDs),
		ExpiresAt: expiresAt,
		Ctime:     timeutil.NowUnix(),
	}
	if err := s.shares.Create(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// CreateLinkShare issues a bearer link token for fileID. Token collisions
// against the ledger's unique index are retried with a fresh token.
func (s *ShareService) CreateLinkShare(ctx context.Context, ownerID, fileID string, expiresAt int64) (*model.Share, error) {
	file, err := s.requireOwner(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		share := &model.Share{
			ID:        newID(),
			FileID:    file.ID,
			OwnerID:   ownerID,
			Kind:      model.ShareKindLink,
			LinkToken: newLinkToken(),
			ExpiresAt: expiresAt,
			Ctime:     timeutil.NowUnix(),
		}
		err := s.shares.Create(ctx, share)
		if err == nil {
			return share, nil
		}
		if !appErr.IsConflict(err) {
			return nil, err
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("link token collision, regenerating",
			zap.String("file_id", fileID), zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// ListByFile returns every share on the file, newest first. Owner-only,
// matching the mutation rule: viewing the share list is a re-share surface.
func (s *ShareService) ListByFile(ctx context.Context, ownerID, fileID string) ([]model.Share, error) {
	if _, err := s.requireOwner(ctx, ownerID, fileID); err != nil {
		return nil, err
	}
	return s.shares.ListByFile(ctx, fileID)
}

// Delete removes a single share. Owner-only.
func (s *ShareService) Delete(ctx context.Context, ownerID, shareID string) error {
	share, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	if share.OwnerID != ownerID {
		return appErr.ErrForbidden
	}
	return s.shares.Delete(ctx, shareID)
}

// ResolveByToken maps a link token to its share and file. It never consults
// canRead: the token itself is the capability. Never-issued tokens are
// NotFound, lapsed ones Expired, and a share whose file is gone resolves to
// NotFound (delete races lose quietly).
func (s *ShareService) ResolveByToken(ctx context.Context, token string) (*model.Share, *model.File, error) {
	if token == "" {
		return nil, nil, appErr.ErrNotFound
	}
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
	return share, file, nil
}

func (s *ShareService) requireOwner(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !CanMutate(ownerID, file) {
		return nil, appErr.ErrForbidden
	}
	return file, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
