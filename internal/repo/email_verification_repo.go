package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/dbutil"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

// EmailVerificationRepo is the expiring keyed store for one-time codes.
// Codes live in the database rather than process memory so multiple
// instances see the same state.
type EmailVerificationRepo struct {
	db *sql.DB
}

func NewEmailVerificationRepo(db *sql.DB) *EmailVerificationRepo {
	return &EmailVerificationRepo{db: db}
}

func (r *EmailVerificationRepo) Create(ctx context.Context, item *model.EmailVerificationCode) error {
	data := map[string]interface{}{
		"id":         item.ID,
		"email":      item.Email,
		"purpose":    item.Purpose,
		"code_hash":  item.CodeHash,
		"attempts":   item.Attempts,
		"used":       item.Used,
		"ctime":      item.Ctime,
		"expires_at": item.ExpiresAt,
	}
	sqlStr, args, err := builder.BuildInsert("email_verification_codes", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *EmailVerificationRepo) LatestByEmail(ctx context.Context, email, purpose string) (*model.EmailVerificationCode, error) {
	const query = `
		SELECT id, email, purpose, code_hash, attempts, used, ctime, expires_at
		FROM email_verification_codes
		WHERE email = $1 AND purpose = $2
		ORDER BY ctime DESC LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, email, purpose)
	var item model.EmailVerificationCode
	if err := row.Scan(&item.ID, &item.Email, &item.Purpose, &item.CodeHash,
		&item.Attempts, &item.Used, &item.Ctime, &item.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *EmailVerificationRepo) MarkUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE email_verification_codes SET used = 1 WHERE id = $1`, id)
	return err
}

func (r *EmailVerificationRepo) IncrAttempts(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE email_verification_codes SET attempts = attempts + 1 WHERE id = $1`, id)
	return err
}

func (r *EmailVerificationRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM email_verification_codes WHERE expires_at < $1 OR used = 1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
