package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Devsama007/File-Share/internal/model"
	"github.com/Devsama007/File-Share/internal/pkg/dbutil"
	appErr "github.com/Devsama007/File-Share/internal/pkg/errors"
)

// FileRepo is the file registry. It performs no authorization: callers are
// trusted to have run the access checks before mutating anything here.
type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

var fileColumns = []string{"id", "owner_id", "original_name", "mime_type", "size_bytes", "file_key", "ctime"}

func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	data := map[string]interface{}{
		"id":            file.ID,
		"owner_id":      file.OwnerID,
		"original_name": file.OriginalName,
		"mime_type":     file.MimeType,
		"size_bytes":    file.SizeBytes,
		"file_key":      file.FileKey,
		"ctime":         file.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("files", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *FileRepo) GetByID(ctx context.Context, fileID string) (*model.File, error) {
	sqlStr, args, err := builder.BuildSelect("files", map[string]interface{}{"id": fileID}, fileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var item model.File
	if err := scanFile(rows, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *FileRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.File, error) {
	sqlStr, args, err := builder.BuildSelect("files",
		map[string]interface{}{"owner_id": ownerID, "_orderby": "ctime desc"}, fileColumns)
	if err != nil {
		return nil, err
	}
	return r.queryFiles(ctx, sqlStr, args)
}

func (r *FileRepo) ListByIDs(ctx context.Context, fileIDs []string) ([]model.File, error) {
	if len(fileIDs) == 0 {
		return []model.File{}, nil
	}
	sqlStr, args, err := builder.BuildSelect("files",
		map[string]interface{}{"id in": fileIDs, "_orderby": "ctime desc"}, fileColumns)
	if err != nil {
		return nil, err
	}
	return r.queryFiles(ctx, sqlStr, args)
}

// DeleteTx removes the registry row inside the caller's cascade transaction.
func (r *FileRepo) DeleteTx(ctx context.Context, ex dbutil.Execer, fileID string) error {
	sqlStr, args, err := builder.BuildDelete("files", map[string]interface{}{"id": fileID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := ex.ExecContext(ctx, sqlStr, args...)
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
}

func (r *FileRepo) queryFiles(ctx context.Context, sqlStr string, args []interface{}) ([]model.File, error) {
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.File, 0)
	for rows.Next() {
		var item model.File
		if err := scanFile(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanFile(rows *sql.Rows, item *model.File) error {
	return rows.Scan(&item.ID, &item.OwnerID, &item.OriginalName, &item.MimeType, &item.SizeBytes, &item.FileKey, &item.Ctime)
}
