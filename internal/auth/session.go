package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/templeotrunks/internal/model"
	"github.com/hitoshi/templeotrunks/internal/repository"
)

// SessionConfig はセッション管理の設定。
type SessionConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// SessionManager はセッションの読み込みと保存を行う。
// セッションは最初に書き込みが発生した時点で作成される。
type SessionManager struct {
	store  repository.SessionRepository
	config SessionConfig
	now    func() time.Time
}

// NewSessionManager はSessionManagerを生成する。
func NewSessionManager(store repository.SessionRepository, config SessionConfig) *SessionManager {
	return &SessionManager{
		store:  store,
		config: config,
		now:    time.Now,
	}
}

// Load は指定IDのセッションを返す。
// IDが空、未登録、期限切れのいずれかの場合は未保存の新しいセッションを返す。
func (m *SessionManager) Load(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return &model.Session{}, nil
	}

	session, err := m.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return &model.Session{}, nil
	}
	return session, nil
}

// Save はセッションを保存し、有効期限を延長する。
// 新しいセッションにはランダムなIDを割り当てる。
func (m *SessionManager) Save(ctx context.Context, session *model.Session) error {
	now := m.now()
	if session.IsNew() {
		session.ID = uuid.NewString()
		session.CreatedAt = now
	}
	session.ExpiresAt = now.Add(time.Duration(m.config.SessionMaxAge) * time.Second)

	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Renew は既存のセッションIDを破棄し、新しいIDで保存し直す。
// ログイン時に呼び出し、ログイン前に発行されたIDを使い続けられないようにする。
func (m *SessionManager) Renew(ctx context.Context, session *model.Session) error {
	if !session.IsNew() {
		if err := m.store.DeleteByID(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete old session: %w", err)
		}
		session.ID = ""
	}
	return m.Save(ctx, session)
}

// MaxAge はセッションCookieの有効期間（秒）を返す。
func (m *SessionManager) MaxAge() int {
	return m.config.SessionMaxAge
}
