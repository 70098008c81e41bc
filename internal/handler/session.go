// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/templeotrunks/internal/middleware"
	"github.com/hitoshi/templeotrunks/internal/model"
	"github.com/hitoshi/templeotrunks/internal/view"
)

// SessionStore はハンドラーがセッションを永続化するためのインターフェース。
// auth.SessionManagerが実装する。
type SessionStore interface {
	Save(ctx context.Context, session *model.Session) error
	Renew(ctx context.Context, session *model.Session) error
	MaxAge() int
}

// SessionCookieConfig はセッションCookieの属性。
type SessionCookieConfig struct {
	CookieDomain string
	CookieSecure bool
}

// sessionSupport はセッションの取得、保存、Cookie発行をまとめたハンドラー共通部品。
type sessionSupport struct {
	store  SessionStore
	cookie SessionCookieConfig
}

// current はリクエストのセッションを返す。
// セッションミドルウェアを通過していない場合は空のセッションを返す。
func (s *sessionSupport) current(r *http.Request) *model.Session {
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		return session
	}
	return &model.Session{}
}

// save はセッションを保存し、セッションCookieを発行する。
func (s *sessionSupport) save(w http.ResponseWriter, r *http.Request, session *model.Session) error {
	if err := s.store.Save(r.Context(), session); err != nil {
		return err
	}
	s.setCookie(w, session)
	return nil
}

// renew はセッションIDを振り直して保存し、セッションCookieを発行する。
func (s *sessionSupport) renew(w http.ResponseWriter, r *http.Request, session *model.Session) error {
	if err := s.store.Renew(r.Context(), session); err != nil {
		return err
	}
	s.setCookie(w, session)
	return nil
}

func (s *sessionSupport) setCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   s.cookie.CookieDomain,
		MaxAge:   s.store.MaxAge(),
		HttpOnly: true,
		Secure:   s.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// flashAndRedirect はフラッシュメッセージを積んでセッションを保存し、302でリダイレクトする。
func (s *sessionSupport) flashAndRedirect(w http.ResponseWriter, r *http.Request, session *model.Session, message, location string) error {
	session.AddFlash(message)
	if err := s.save(w, r, session); err != nil {
		return err
	}
	http.Redirect(w, r, location, http.StatusFound)
	return nil
}

// page は共通ページデータを組み立てる。
// フラッシュメッセージはここで消費され、消費後のセッションを保存する。
func (s *sessionSupport) page(w http.ResponseWriter, r *http.Request, session *model.Session) (view.Page, error) {
	p := view.Page{
		LoggedIn:  session.LoggedIn,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	}
	if len(session.Flashes) == 0 {
		return p, nil
	}

	p.Flashes = session.PopFlashes()
	if !session.IsNew() {
		if err := s.save(w, r, session); err != nil {
			return p, fmt.Errorf("failed to consume flashes: %w", err)
		}
	}
	return p, nil
}
