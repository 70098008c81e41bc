// Package auth はユーザー名とパスワードによるログイン、セッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/templeotrunks/internal/model"
	"github.com/hitoshi/templeotrunks/internal/repository"
)

// ログイン失敗を表すエラー。Messageはログインフォームにそのまま表示する。
var (
	ErrInvalidUsername error = model.NewInvalidUsernameError()
	ErrInvalidPassword error = model.NewInvalidPasswordError()
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Login はユーザー名とパスワードを検証し、成功した場合はセッションにユーザーを紐付ける。
//
// ユーザー名は大文字小文字を区別して完全一致で検索する。
// パスワードは保存値との単純な文字列比較で検証する（ハッシュ化なし、定数時間比較なし）。
// 既存データとの互換性のための挙動であり、安全な認証方式ではない。
func (s *Service) Login(ctx context.Context, session *model.Session, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidUsername
	}

	if password != user.Password {
		return nil, ErrInvalidPassword
	}

	uid := user.ID
	session.LoggedIn = true
	session.UserID = &uid

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role.String()),
	)
	return user, nil
}

// Logout はセッションのログイン状態とユーザーの紐付けを解除する。
// 未ログインのセッションに対して呼んでも何もしない。
func (s *Service) Logout(session *model.Session) {
	if session.UserID != nil {
		slog.Info("user logged out", slog.Int64("user_id", *session.UserID))
	}
	session.LoggedIn = false
	session.UserID = nil
}

// CurrentIdentity はセッションに紐付いた利用者を返す。
// 紐付けが無い場合や、紐付いたユーザーが存在しない場合はAnonymousを返す。
func (s *Service) CurrentIdentity(ctx context.Context, session *model.Session) (model.Identity, error) {
	if session == nil || session.UserID == nil {
		return model.Anonymous{}, nil
	}

	user, err := s.LoadUser(ctx, *session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return model.Anonymous{}, nil
	}
	return model.Authenticated{User: user}, nil
}

// LoadUser は指定IDのユーザーを取得する。存在しない場合はnilを返し、エラーにしない。
func (s *Service) LoadUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// IsCredentialError はerrがログインフォームに表示すべき認証エラーかどうかを返す。
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidUsername) || errors.Is(err, ErrInvalidPassword)
}
