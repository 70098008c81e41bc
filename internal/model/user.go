// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Role はユーザーの権限区分を表す。
// 取りうる値は RoleNormal と RoleSuper のみ。
type Role int

const (
	// RoleNormal は一般ユーザー。投稿の閲覧のみ可能。
	RoleNormal Role = 0
	// RoleSuper は管理ユーザー。投稿の作成が可能。
	RoleSuper Role = 1
)

// ParseRole はDBに保存された整数値をRoleに変換する。
// 未知の値はエラーとする。
func ParseRole(v int) (Role, error) {
	switch Role(v) {
	case RoleNormal, RoleSuper:
		return Role(v), nil
	default:
		return RoleNormal, fmt.Errorf("unknown role value: %d", v)
	}
}

// String はロール名を返す。
func (r Role) String() string {
	switch r {
	case RoleSuper:
		return "SUPER"
	case RoleNormal:
		return "NORMAL"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// User はブログのユーザーを表す。
//
// Password は平文のまま保存・比較される。既存データとの互換性を保つため
// ハッシュ化は行っていない。
type User struct {
	ID       int64
	Username string
	Password string
	Email    string
	Role     Role
}

// Session は訪問者ごとのセッション状態を表す。
// ログイン前の訪問者もフラッシュメッセージを保持するためにセッションを持つ。
type Session struct {
	ID        string
	UserID    *int64
	LoggedIn  bool
	Flashes   []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsNew はまだ永続化されていないセッションかどうかを返す。
func (s *Session) IsNew() bool {
	return s.ID == ""
}

// AddFlash は次に表示するページ向けのメッセージを追加する。
func (s *Session) AddFlash(msg string) {
	s.Flashes = append(s.Flashes, msg)
}

// PopFlashes はキューに溜まったメッセージを取り出して空にする。
func (s *Session) PopFlashes() []string {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}
