// Package model はドメインモデルを定義する。
package model

import "fmt"

// AppError は利用者に提示するエラーを表す。
// Message はフラッシュメッセージまたはフォームのエラー表示にそのまま使う。
type AppError struct {
	Code     string // エラーコード
	Message  string // 表示メッセージ
	Category string // カテゴリ: auth, post, system
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePostNotFound    = "POST_NOT_FOUND"
	ErrCodeNotAuthorized   = "NOT_AUTHORIZED"
	ErrCodeInvalidUsername = "INVALID_USERNAME"
	ErrCodeInvalidPassword = "INVALID_PASSWORD"
)

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodePostNotFound,
		Message:  "Post not found.",
		Category: "post",
	}
}

// NewNotAuthorizedError は投稿権限がない場合のエラーを生成する。
func NewNotAuthorizedError() *AppError {
	return &AppError{
		Code:     ErrCodeNotAuthorized,
		Message:  "You are not authorized to add a post",
		Category: "auth",
	}
}

// NewInvalidUsernameError はユーザー名が存在しない場合のエラーを生成する。
func NewInvalidUsernameError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidUsername,
		Message:  "Invalid username",
		Category: "auth",
	}
}

// NewInvalidPasswordError はパスワードが一致しない場合のエラーを生成する。
func NewInvalidPasswordError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidPassword,
		Message:  "Invalid password",
		Category: "auth",
	}
}
