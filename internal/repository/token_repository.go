package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/pos-system/internal/model"
)

// TokenRepo persists refresh tokens in the `refresh_tokens` table.  The
// random token string is the lookup key.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const tokenColumns = "id, token, jwt_id, creation_date, expiry_date, used, revoked, user_id"

func scanToken(row rowScanner) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := row.Scan(&t.ID, &t.Token, &t.JwtID, &t.CreationDate, &t.ExpiryDate, &t.Used, &t.Revoked, &t.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts t and stores the generated id on it.
func (r *TokenRepo) Create(ctx context.Context, t *model.RefreshToken) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, jwt_id, creation_date, expiry_date, used, revoked, user_id)
		 VALUES (?,?,?,?,?,?,?)`,
		t.Token, t.JwtID, t.CreationDate, t.ExpiryDate, t.Used, t.Revoked, t.UserID)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// GetByToken loads a token by its string value.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	return scanToken(r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token=? LIMIT 1", token))
}

// Consume flips an active token to used+revoked in a single conditional
// UPDATE.  It returns false when the row was no longer active at now,
// which is how concurrent refreshes of the same token lose.
func (r *TokenRepo) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET used=1, revoked=1
		 WHERE token=? AND used=0 AND revoked=0 AND expiry_date > ?`, token, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke marks a token revoked.  It returns false when the token does not
// exist or was already revoked.
func (r *TokenRepo) Revoke(ctx context.Context, token string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE token=? AND revoked=0", token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeBatch revokes every listed token that is not revoked yet and
// returns how many rows changed.
func (r *TokenRepo) RevokeBatch(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tokens)), ",")
	args := make([]any, 0, len(tokens))
	for _, t := range tokens {
		args = append(args, t)
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE revoked=0 AND token IN ("+placeholders+")", args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ActiveForUser lists the token strings of a user that are not revoked.
// Expired rows are included so logout sweeps them as well.
func (r *TokenRepo) ActiveForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT token FROM refresh_tokens WHERE user_id=? AND revoked=0", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
