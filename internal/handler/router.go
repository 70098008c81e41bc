package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/templeotrunks/internal/metrics"
	"github.com/hitoshi/templeotrunks/internal/middleware"
	"github.com/hitoshi/templeotrunks/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger        *slog.Logger
	SessionLoader middleware.SessionLoader
	RateLimiter   *middleware.RateLimiter
	CSRF          *middleware.CSRFConfig // nilの場合CSRF検証を行わない
	Metrics       metrics.MetricsCollector

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler // nilの場合/metricsを公開しない

	// セッション
	Sessions     SessionStore
	CookieConfig SessionCookieConfig

	// ドメイン
	AuthService AuthServiceInterface
	PostStore   PostStore
	Renderer    view.Renderer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Metrics → Session → Logging → CSRF(任意)
//
// /health、/metrics、/static/* はセッションの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewMetricsMiddleware(collector))

	postHandler := NewPostHandler(deps.Sessions, deps.CookieConfig, deps.AuthService, deps.PostStore, deps.Renderer, collector)
	authHandler := NewAuthHandler(deps.Sessions, deps.CookieConfig, deps.AuthService, deps.Renderer, collector)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", view.StaticHandler()))

	// --- 画面 ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionLoader))
		r.Use(middleware.NewLoggingMiddleware(logger))
		if deps.CSRF != nil {
			r.Use(middleware.NewCSRFMiddleware(*deps.CSRF))
		}

		r.Get("/", postHandler.ShowPosts)
		r.Get("/main", postHandler.MainPage)
		r.Get("/past", postHandler.PastUpdates)
		r.Get("/post/{postID:[0-9]+}", postHandler.ShowPost)
		r.Post("/add", postHandler.AddPost)

		loginLimit := func(next http.Handler) http.Handler { return next }
		if deps.RateLimiter != nil {
			loginLimit = deps.RateLimiter.LoginMiddleware()
		}
		r.Get("/login", authHandler.LoginForm)
		r.With(loginLimit).Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)
	})

	return r
}
