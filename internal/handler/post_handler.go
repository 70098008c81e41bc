package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/templeotrunks/internal/metrics"
	"github.com/hitoshi/templeotrunks/internal/middleware"
	"github.com/hitoshi/templeotrunks/internal/model"
	"github.com/hitoshi/templeotrunks/internal/view"
)

// フラッシュメッセージ
const (
	flashPostCreated = "New post was successfully posted"
	flashLoggedIn    = "You were successfully logged in"
	flashLoggedOut   = "You have been logged out"
)

// IdentityResolver はセッションから現在の利用者を解決するインターフェース。
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, session *model.Session) (model.Identity, error)
}

// PostStore は投稿ハンドラーが必要とする永続化インターフェース。
// repository.PostRepositoryが実装する。
type PostStore interface {
	FindByID(ctx context.Context, id int64) (*model.Post, error)
	List(ctx context.Context, order model.SortOrder) ([]*model.Post, error)
	CreateWithCategory(ctx context.Context, post *model.Post, category *model.Category) error
}

// PostHandler は投稿の閲覧と作成を扱うHTTPハンドラー。
type PostHandler struct {
	sessionSupport
	identities IdentityResolver
	posts      PostStore
	renderer   view.Renderer
	metrics    metrics.MetricsCollector
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(
	sessions SessionStore,
	cookie SessionCookieConfig,
	identities IdentityResolver,
	posts PostStore,
	renderer view.Renderer,
	collector metrics.MetricsCollector,
) *PostHandler {
	return &PostHandler{
		sessionSupport: sessionSupport{store: sessions, cookie: cookie},
		identities:     identities,
		posts:          posts,
		renderer:       renderer,
		metrics:        collector,
	}
}

// ShowPosts は全投稿を古い順に表示する。
// GET /
func (h *PostHandler) ShowPosts(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, view.TemplateShowPosts, model.SortAscending, true, "")
}

// MainPage は全投稿を新しい順に表示する。
// GET /main
func (h *PostHandler) MainPage(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, view.TemplateMainPage, model.SortDescending, true, model.PostDateFormat)
}

// PastUpdates は過去の更新を新しい順に表示する。
// GET /past
func (h *PostHandler) PastUpdates(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, view.TemplatePastUpdates, model.SortDescending, false, "")
}

func (h *PostHandler) renderList(w http.ResponseWriter, r *http.Request, name string, order model.SortOrder, withAdmin bool, dateFormat string) {
	session := h.current(r)

	posts, err := h.posts.List(r.Context(), order)
	if err != nil {
		h.fail(w, r, "failed to list posts", err)
		return
	}

	data := view.PostListPage{
		Posts:      posts,
		DateFormat: dateFormat,
	}
	if withAdmin {
		identity, err := h.identities.CurrentIdentity(r.Context(), session)
		if err != nil {
			h.fail(w, r, "failed to resolve identity", err)
			return
		}
		data.Admin = model.IsSuper(identity)
	}

	data.Page, err = h.page(w, r, session)
	if err != nil {
		h.fail(w, r, "failed to build page", err)
		return
	}

	h.render(w, r, name, data)
}

// ShowPost は指定IDの投稿を表示する。存在しない場合は一覧へ戻す。
// GET /post/{postID}
func (h *PostHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	session := h.current(r)

	var post *model.Post
	// ルートの正規表現で数字のみが渡る。int64に収まらない値は存在しない投稿として扱う
	if id, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64); err == nil {
		post, err = h.posts.FindByID(r.Context(), id)
		if err != nil {
			h.fail(w, r, "failed to find post", err)
			return
		}
	}

	if post == nil {
		if err := h.flashAndRedirect(w, r, session, model.NewPostNotFoundError().Message, "/"); err != nil {
			h.fail(w, r, "failed to save session", err)
		}
		return
	}

	page, err := h.page(w, r, session)
	if err != nil {
		h.fail(w, r, "failed to build page", err)
		return
	}

	h.render(w, r, view.TemplatePostPage, view.PostPage{Page: page, Post: post})
}

// AddPost は新しい投稿を作成する。
// 未ログインは401、Super以外のログインユーザーはフラッシュ付きでリダイレクトする。
// 権限確認の後でtitleまたはtextが欠けていれば400を返す。
// POST /add
func (h *PostHandler) AddPost(w http.ResponseWriter, r *http.Request) {
	session := h.current(r)
	if !session.LoggedIn {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized)
		return
	}

	identity, err := h.identities.CurrentIdentity(r.Context(), session)
	if err != nil {
		h.fail(w, r, "failed to resolve identity", err)
		return
	}

	var author *model.User
	switch id := identity.(type) {
	case model.Authenticated:
		if id.User != nil && id.User.Role == model.RoleSuper {
			author = id.User
		}
	case model.Anonymous:
	}

	if author == nil {
		if err := h.flashAndRedirect(w, r, session, model.NewNotAuthorizedError().Message, "/"); err != nil {
			h.fail(w, r, "failed to save session", err)
		}
		return
	}

	fields, ok := requiredPostForm(r, "title", "text")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest)
		return
	}

	category := &model.Category{Name: model.UncategorizedName}
	post := model.NewPost(fields[0], fields[1], category, author, time.Time{})
	if err := h.posts.CreateWithCategory(r.Context(), post, category); err != nil {
		h.fail(w, r, "failed to create post", err)
		return
	}
	h.metrics.RecordPostCreated()

	slog.Info("post created",
		slog.Int64("post_id", post.ID),
		slog.Int64("user_id", author.ID),
	)

	if err := h.flashAndRedirect(w, r, session, flashPostCreated, "/"); err != nil {
		h.fail(w, r, "failed to save session", err)
	}
}

func (h *PostHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := h.renderer.Render(w, http.StatusOK, name, data); err != nil {
		h.fail(w, r, "failed to render template", err)
	}
}

// fail は永続化や描画の失敗をログに記録し、500を返す。
func (h *PostHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logFailure(r, msg, err)
	middleware.WriteInternalServerError(w)
}

func logFailure(r *http.Request, msg string, err error) {
	slog.Error(msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}
