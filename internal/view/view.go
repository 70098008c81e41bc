// Package view はHTMLテンプレートの描画を提供する。
// ハンドラーはテンプレート名とページデータのみを渡し、描画の詳細はこのパッケージに閉じる。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/templeotrunks/internal/model"
	"github.com/hitoshi/templeotrunks/internal/security"
)

// テンプレート名
const (
	TemplateShowPosts   = "show_posts"
	TemplateMainPage    = "main_page"
	TemplatePastUpdates = "past_updates"
	TemplatePostPage    = "post_page"
	TemplateLogin       = "login"
)

var pageNames = []string{
	TemplateShowPosts,
	TemplateMainPage,
	TemplatePastUpdates,
	TemplatePostPage,
	TemplateLogin,
}

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer はテンプレート描画のインターフェース。
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

// Page は全ページ共通のデータ。
type Page struct {
	Flashes   []string
	LoggedIn  bool
	CSRFToken string
}

// PostListPage は投稿一覧ページのデータ。
type PostListPage struct {
	Page
	Posts      []*model.Post
	Admin      bool
	DateFormat string
}

// PostPage は投稿詳細ページのデータ。
type PostPage struct {
	Page
	Post *model.Post
}

// LoginPage はログインフォームのデータ。
type LoginPage struct {
	Page
	Error string
}

// PostingDate は投稿日時を "<曜日>, <月>/<日>/<年>" 形式で返す。月日はゼロ埋めしない。
// 例: 2025-03-05 → "Wednesday, 3/5/2025"
func PostingDate(t time.Time) string {
	return fmt.Sprintf("%s, %d/%d/%d", t.Weekday(), int(t.Month()), t.Day(), t.Year())
}

// TemplateRenderer はhtml/templateによるRenderer実装。
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// bodyHTML は投稿本文を表示用のHTMLに変換する。
// タグを含まない本文はプレーンテキストとみなし、改行を<br>にしてからサニタイズする。
func bodyHTML(sanitizer security.ContentSanitizer, body string) template.HTML {
	if !strings.Contains(body, "<") {
		body = strings.ReplaceAll(body, "\r\n", "\n")
		body = strings.ReplaceAll(body, "\n", "<br>\n")
	}
	return template.HTML(sanitizer.Sanitize(body))
}

// NewTemplateRenderer は埋め込みテンプレートを読み込んでRendererを生成する。
// 各ページはlayout.htmlと組み合わせてパースする。
func NewTemplateRenderer(sanitizer security.ContentSanitizer) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"posting_date": PostingDate,
		"format_date": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"render_body": func(body string) template.HTML {
			return bodyHTML(sanitizer, body)
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &TemplateRenderer{pages: pages}, nil
}

// Render は指定テンプレートを描画してレスポンスに書き込む。
// 描画途中のエラーで不完全なHTMLを返さないよう、一度バッファに書き出す。
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler は埋め込み静的ファイルを配信するハンドラーを返す。
// /static/ プレフィックスを取り除いた上でマウントすること。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// compile-time interface check
var _ Renderer = (*TemplateRenderer)(nil)
