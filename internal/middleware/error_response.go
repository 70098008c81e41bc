package middleware

import (
	"net/http"
)

// WriteErrorResponse はステータスコードに対応する短いテキストだけを返す。
// 401や500は画面を描画せず、この形式で応答する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}

// WriteInternalServerError は内部サーバーエラーのレスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError)
}
