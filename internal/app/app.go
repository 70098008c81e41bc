// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/templeotrunks/internal/auth"
	"github.com/hitoshi/templeotrunks/internal/config"
	"github.com/hitoshi/templeotrunks/internal/database"
	"github.com/hitoshi/templeotrunks/internal/handler"
	"github.com/hitoshi/templeotrunks/internal/logger"
	"github.com/hitoshi/templeotrunks/internal/metrics"
	"github.com/hitoshi/templeotrunks/internal/middleware"
	"github.com/hitoshi/templeotrunks/internal/repository"
	"github.com/hitoshi/templeotrunks/internal/security"
	"github.com/hitoshi/templeotrunks/internal/user"
	"github.com/hitoshi/templeotrunks/internal/view"
	"github.com/hitoshi/templeotrunks/internal/worker/cleanup"
)

// sessionCleanupInterval はserve中に期限切れセッションを削除する間隔。
const sessionCleanupInterval = time.Hour

// dbPingAttempts は起動時にDBの応答を待つ最大試行回数。
var dbPingAttempts = 5

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("session_store", cfg.SessionStore),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCleanup:
		return runCleanup(cfg)
	default:
		return runServe(cfg)
	}
}

// application はserveモードで組み立てた依存関係を保持する。
type application struct {
	handler http.Handler
	closers []func() error
	jobs    []func(ctx context.Context)
}

// Close は確保したリソースを逆順で解放する。
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newApplication はDB接続を開き、全依存関係をワイヤリングする。
// 失敗した場合はそれまでに確保したリソースを解放してエラーを返す。
func newApplication(ctx context.Context, cfg *config.Config) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.closers = append(app.closers, db.Close)

	if err := database.PingWithRetry(ctx, db, dbPingAttempts); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if cfg.AutoMigrate {
		dialect, _, err := database.ParseURL(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateDB(db, dialect); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations applied")
	}

	// 2. リポジトリの初期化と既定ユーザーの投入
	userRepo := repository.NewSQLUserRepo(db)
	postRepo := repository.NewSQLPostRepo(db)

	if _, err := user.NewService(userRepo).EnsureDefaultUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	// 3. セッションストア
	sessionRepo, err := app.newSessionStore(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	// 4. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスと描画
	authService := auth.NewService(userRepo)
	sessions := auth.NewSessionManager(sessionRepo, auth.SessionConfig{SessionMaxAge: cfg.SessionMaxAge})

	renderer, err := view.NewTemplateRenderer(security.NewContentSanitizer())
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:         slog.Default(),
		SessionLoader:  sessions,
		Metrics:        collector,
		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),
		Sessions:       sessions,
		CookieConfig: handler.SessionCookieConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},
		AuthService: authService,
		PostStore:   postRepo,
		Renderer:    renderer,
	}

	if cfg.RateLimitLogin > 0 {
		limiter := middleware.NewRateLimiter(
			middleware.NewRateLimiterConfig(cfg.RateLimitLogin),
			func() { collector.RecordLoginAttempt(metrics.LoginResultRateLimited) },
		)
		app.closers = append(app.closers, func() error {
			limiter.Stop()
			return nil
		})
		deps.RateLimiter = limiter
	}

	if cfg.CSRFProtection {
		deps.CSRF = &middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		}
	}

	app.handler = handler.NewRouter(deps)
	return app, nil
}

// newSessionStore は設定に応じたセッションストアを生成する。
// SQLストアの場合は期限切れセッションの定期削除ジョブも登録する。
func (a *application) newSessionStore(ctx context.Context, cfg *config.Config, db *sql.DB) (repository.SessionRepository, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		slog.Info("redis session store connected")
		return repository.NewRedisSessionRepo(client), nil

	default:
		repo := repository.NewSQLSessionRepo(db)
		job := cleanup.NewCleanupJob(repo, slog.Default())
		job.Retention = cfg.SessionRetention
		a.jobs = append(a.jobs, func(ctx context.Context) {
			job.Start(ctx, sessionCleanupInterval)
		})
		return repo, nil
	}
}

// runServe はWebサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, job := range app.jobs {
		go job(ctx)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCleanup は期限切れセッションを1回だけ削除する。
// Redisストアはキーの有効期限で消えるため何もしない。
func runCleanup(cfg *config.Config) error {
	if cfg.SessionStore == config.SessionStoreRedis {
		slog.Info("session cleanup skipped: redis expires sessions by TTL")
		return nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	job := cleanup.NewCleanupJob(repository.NewSQLSessionRepo(db), slog.Default())
	job.Retention = cfg.SessionRetention

	if _, err := job.Run(context.Background()); err != nil {
		return err
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードを伏せ字にする。
func maskDatabaseURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
