// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/templeotrunks/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername はユーザー名の完全一致（大文字小文字を区別）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Count は登録済みユーザー数を返す。
	Count(ctx context.Context) (int, error)

	// CreateAll は複数のユーザーを同一トランザクションで作成し、採番したIDを設定する。
	CreateAll(ctx context.Context, users []*model.User) error
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿をカテゴリと投稿者付きで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// List は全投稿をpub_dateの指定順で返す。同一日時はIDで同じ向きに並べる。
	List(ctx context.Context, order model.SortOrder) ([]*model.Post, error)

	// CreateWithCategory はカテゴリと投稿を同一トランザクションで作成する。
	// コミットが成功した時点で永続化され、採番したIDがcategoryとpostに設定される。
	CreateWithCategory(ctx context.Context, post *model.Post, category *model.Category) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Save はセッションを作成または上書きする。
	Save(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}

// ExpiredSessionDeleter は期限切れセッションの一括削除インターフェース。
// 有効期限をストア側で管理できないSQLセッションストアのみが実装する。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
