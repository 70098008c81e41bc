package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/templeotrunks/internal/model"
)

// sessionData はsessions.dataカラムに保存するJSON。
type sessionData struct {
	LoggedIn bool     `json:"logged_in"`
	Flashes  []string `json:"flashes,omitempty"`
}

// SQLSessionRepo はdatabase/sqlを使用したセッションリポジトリ。
type SQLSessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLSessionRepo はSQLSessionRepoを生成する。
func NewSQLSessionRepo(db *sql.DB) *SQLSessionRepo {
	return &SQLSessionRepo{db: db, now: time.Now}
}

// Save はセッションを作成または上書きする。
func (r *SQLSessionRepo) Save(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(sessionData{
		LoggedIn: session.LoggedIn,
		Flashes:  session.Flashes,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}

	var userID sql.NullInt64
	if session.UserID != nil {
		userID = sql.NullInt64{Int64: *session.UserID, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, data, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET user_id = excluded.user_id,
		     data = excluded.data,
		     expires_at = excluded.expires_at`,
		session.ID, userID, string(data), session.ExpiresAt.UTC(), session.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *SQLSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var userID sql.NullInt64
	var raw string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, data, expires_at, created_at
		 FROM sessions
		 WHERE id = $1`,
		id,
	).Scan(&session.ID, &userID, &raw, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	// 有効期限の判定はDB方言に依存しないようアプリ側で行う
	if !session.ExpiresAt.After(r.now()) {
		return nil, nil
	}

	var data sessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to decode session data: %w", err)
	}

	session.LoggedIn = data.LoggedIn
	session.Flashes = data.Flashes
	if userID.Valid {
		uid := userID.Int64
		session.UserID = &uid
	}

	return session, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *SQLSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired はbefore以前に期限切れとなったセッションを削除し、削除件数を返す。
func (r *SQLSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < $1`,
		before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var (
	_ SessionRepository     = (*SQLSessionRepo)(nil)
	_ ExpiredSessionDeleter = (*SQLSessionRepo)(nil)
)
