// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/templeotrunks/internal/model"
	"github.com/hitoshi/templeotrunks/internal/repository"
)

// DefaultUsers は初回起動時に作成するユーザーを返す。
// 呼び出しごとに新しいスライスを返すため、IDの書き込みが他へ波及しない。
func DefaultUsers() []*model.User {
	return []*model.User{
		{Username: "admin", Password: "password", Email: "admin@example.com", Role: model.RoleSuper},
		{Username: "user", Password: "security", Email: "user@example", Role: model.RoleNormal},
	}
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// EnsureDefaultUsers はusersテーブルが空の場合のみ既定ユーザーを作成する。
// 作成した場合はtrueを返す。
func (s *Service) EnsureDefaultUsers(ctx context.Context) (bool, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("ユーザー数の取得に失敗しました: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	users := DefaultUsers()
	if err := s.userRepo.CreateAll(ctx, users); err != nil {
		return false, fmt.Errorf("既定ユーザーの作成に失敗しました: %w", err)
	}

	for _, u := range users {
		slog.Info("既定ユーザーを作成しました",
			slog.Int64("user_id", u.ID),
			slog.String("username", u.Username),
			slog.String("role", u.Role.String()),
		)
	}
	return true, nil
}
