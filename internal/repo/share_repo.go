package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Devsama007/File-Share/internal/model"
	"github.com/Devsama007/File-Share/internal/pkg/dbutil"
	appErr "github.com/Devsama007/File-Share/internal/pkg/errors"
)

// ShareRepo is the share ledger. Grantees of user-kind shares live in the
// share_grants join table and are surfaced on model.Share.GrantedTo.
// Like FileRepo, it trusts callers to have authorized the operation.
type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

const shareColumns = "id, file_id, owner_id, kind, link_token, expires_at, ctime"

// Create inserts the share row and its grant rows in one transaction.
// A link token collision surfaces as ErrConflict so the caller can
// regenerate and retry.
func (r *ShareRepo) Create(ctx context.Context, share *model.Share) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var token interface{}
		if share.LinkToken != "" {
			token = share.LinkToken
		}
		sqlStr := `INSERT INTO shares (id, file_id, owner_id, kind, link_token, expires_at, ctime) VALUES (?, ?, ?, ?, ?, ?, ?)`
		args := []interface{}{share.ID, share.FileID, share.OwnerID, share.Kind, token, share.ExpiresAt, share.Ctime}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			if dbutil.IsConflict(err) {
				return appErr.ErrConflict
			}
			return err
		}
		for _, userID := range share.GrantedTo {
			grantSQL, grantArgs := dbutil.Finalize(
				`INSERT INTO share_grants (share_id, user_id) VALUES (?, ?)`,
				[]interface{}{share.ID, userID},
			)
			if _, err := tx.ExecContext(ctx, grantSQL, grantArgs...); err != nil {
				if dbutil.IsConflict(err) {
					// duplicate grantee in the input set
					continue
				}
				return err
			}
		}
		return nil
	})
}

func (r *ShareRepo) GetByID(ctx context.Context, shareID string) (*model.Share, error) {
	return r.getOne(ctx, `SELECT `+shareColumns+` FROM shares WHERE id = ?`, shareID)
}

func (r *ShareRepo) GetByToken(ctx context.Context, token string) (*model.Share, error) {
	return r.getOne(ctx, `SELECT `+shareColumns+` FROM shares WHERE link_token = ?`, token)
}

func (r *ShareRepo) getOne(ctx context.Context, sqlStr string, arg interface{}) (*model.Share, error) {
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{arg})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var share model.Share
	if err := scanShare(rows, &share); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := r.attachGrants(ctx, []*model.Share{&share}); err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *ShareRepo) ListByFile(ctx context.Context, fileID string) ([]model.Share, error) {
	sqlStr := `SELECT ` + shareColumns + ` FROM shares WHERE file_id = ? ORDER BY ctime DESC`
	items, err := r.queryShares(ctx, sqlStr, []interface{}{fileID})
	if err != nil {
		return nil, err
	}
	refs := make([]*model.Share, 0, len(items))
	for i := range items {
		refs = append(refs, &items[i])
	}
	if err := r.attachGrants(ctx, refs); err != nil {
		return nil, err
	}
	return items, nil
}

// ListAccessibleTo returns the shares that put files into userID's
// "shared with me" view: user-kind shares naming them and, when
// includeLinkShares is set, every link share regardless of holder.
// Expiry filtering is the caller's job.
func (r *ShareRepo) ListAccessibleTo(ctx context.Context, userID string, includeLinkShares bool) ([]model.Share, error) {
	sqlStr := `
		SELECT DISTINCT s.id, s.file_id, s.owner_id, s.kind, s.link_token, s.expires_at, s.ctime
		FROM shares s
		LEFT JOIN share_grants g ON g.share_id = s.id
		WHERE (s.kind = ? AND g.user_id = ?)
	`
	args := []interface{}{model.ShareKindUser, userID}
	if includeLinkShares {
		sqlStr += ` OR s.kind = ?`
		args = append(args, model.ShareKindLink)
	}
	sqlStr += ` ORDER BY s.ctime DESC`
	return r.queryShares(ctx, sqlStr, args)
}

func (r *ShareRepo) Delete(ctx context.Context, shareID string) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		grantSQL, grantArgs := dbutil.Finalize(`DELETE FROM share_grants WHERE share_id = ?`, []interface{}{shareID})
		if _, err := tx.ExecContext(ctx, grantSQL, grantArgs...); err != nil {
			return err
		}
		sqlStr, args := dbutil.Finalize(`DELETE FROM shares WHERE id = ?`, []interface{}{shareID})
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return appErr.ErrNotFound
		}
		return nil
	})
}

// DeleteByFileTx cascades share deletion inside the file-delete transaction
// so readers never observe a deleted file with live shares.
func (r *ShareRepo) DeleteByFileTx(ctx context.Context, ex dbutil.Execer, fileID string) error {
	grantSQL, grantArgs := dbutil.Finalize(
		`DELETE FROM share_grants WHERE share_id IN (SELECT id FROM shares WHERE file_id = ?)`,
		[]interface{}{fileID},
	)
	if _, err := ex.ExecContext(ctx, grantSQL, grantArgs...); err != nil {
		return err
	}
	sqlStr, args := dbutil.Finalize(`DELETE FROM shares WHERE file_id = ?`, []interface{}{fileID})
	_, err := ex.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ShareRepo) queryShares(ctx context.Context, sqlStr string, args []interface{}) ([]model.Share, error) {
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Share, 0)
	for rows.Next() {
		var item model.Share
		if err := scanShare(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ShareRepo) attachGrants(ctx context.Context, shares []*model.Share) error {
	ids := make([]string, 0, len(shares))
	byID := make(map[string]*model.Share, len(shares))
	for _, share := range shares {
		if share.Kind != model.ShareKindUser {
			continue
		}
		ids = append(ids, share.ID)
		byID[share.ID] = share
	}
	if len(ids) == 0 {
		return nil
	}
	sqlStr, args, err := builder.BuildSelect("share_grants",
		map[string]interface{}{"share_id in": ids}, []string{"share_id", "user_id"})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var shareID, userID string
		if err := rows.Scan(&shareID, &userID); err != nil {
			return err
		}
		if share, ok := byID[shareID]; ok {
			share.GrantedTo = append(share.GrantedTo, userID)
		}
	}
	return rows.Err()
}

func scanShare(rows *sql.Rows, item *model.Share) error {
	var token sql.NullString
	if err := rows.Scan(&item.ID, &item.FileID, &item.OwnerID, &item.Kind, &token, &item.ExpiresAt, &item.Ctime); err != nil {
		return err
	}
	item.LinkToken = token.String
	return nil
}
