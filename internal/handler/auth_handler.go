package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/templeotrunks/internal/auth"
	"github.com/hitoshi/templeotrunks/internal/metrics"
	"github.com/hitoshi/templeotrunks/internal/middleware"
	"github.com/hitoshi/templeotrunks/internal/model"
	"github.com/hitoshi/templeotrunks/internal/view"
)

// AuthServiceInterface はログインハンドラーが必要とする認証サービスインターフェース。
type AuthServiceInterface interface {
	IdentityResolver
	Login(ctx context.Context, session *model.Session, username, password string) (*model.User, error)
	Logout(session *model.Session)
}

// AuthHandler はログインとログアウトを扱うHTTPハンドラー。
type AuthHandler struct {
	sessionSupport
	service  AuthServiceInterface
	renderer view.Renderer
	metrics  metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	sessions SessionStore,
	cookie SessionCookieConfig,
	service AuthServiceInterface,
	renderer view.Renderer,
	collector metrics.MetricsCollector,
) *AuthHandler {
	return &AuthHandler{
		sessionSupport: sessionSupport{store: sessions, cookie: cookie},
		service:        service,
		renderer:       renderer,
		metrics:        collector,
	}
}

// LoginForm はログインフォームを表示する。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, h.current(r), "")
}

// Login はフォームの資格情報でログインする。
// 資格情報の誤りはエラーメッセージ付きでフォームを再表示し、成功時は一覧へリダイレクトする。
// usernameまたはpasswordが欠けていれば400を返す。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	session := h.current(r)

	fields, ok := requiredPostForm(r, "username", "password")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest)
		return
	}

	_, err := h.service.Login(r.Context(), session, fields[0], fields[1])
	if err != nil {
		var appErr *model.AppError
		if auth.IsCredentialError(err) && errors.As(err, &appErr) {
			h.metrics.RecordLoginAttempt(loginResult(appErr))
			h.renderLogin(w, r, session, appErr.Message)
			return
		}
		logFailure(r, "login failed", err)
		middleware.WriteInternalServerError(w)
		return
	}
	h.metrics.RecordLoginAttempt(metrics.LoginResultSuccess)

	session.AddFlash(flashLoggedIn)
	if err := h.renew(w, r, session); err != nil {
		logFailure(r, "failed to save session", err)
		middleware.WriteInternalServerError(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout はログイン状態を解除して一覧へリダイレクトする。
// 未ログインでも同じ応答を返す。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.current(r)
	h.service.Logout(session)

	if err := h.flashAndRedirect(w, r, session, flashLoggedOut, "/"); err != nil {
		logFailure(r, "failed to save session", err)
		middleware.WriteInternalServerError(w)
	}
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, session *model.Session, message string) {
	page, err := h.page(w, r, session)
	if err != nil {
		logFailure(r, "failed to build page", err)
		middleware.WriteInternalServerError(w)
		return
	}

	if err := h.renderer.Render(w, http.StatusOK, view.TemplateLogin, view.LoginPage{Page: page, Error: message}); err != nil {
		logFailure(r, "failed to render template", err)
		middleware.WriteInternalServerError(w)
	}
}

func loginResult(appErr *model.AppError) string {
	if appErr.Code == model.ErrCodeInvalidUsername {
		return metrics.LoginResultInvalidUsername
	}
	return metrics.LoginResultInvalidPassword
}
