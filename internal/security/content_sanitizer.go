// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は投稿本文のHTMLをサニタイズし、
// 閲覧者をXSSなどのリスクから保護する。
// 本文はDBには入力どおり保存し、表示時にのみサニタイズする。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はHTMLコンテンツのサニタイズ機能のインターフェース。
type ContentSanitizer interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string
}

// postSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため、1つを全リクエストで共有する。
type postSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer は投稿本文向けのContentSanitizerを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, h2, h3, h4, ul, ol, li, blockquote, pre, code, strong, em, a, img
//   - script, iframe, style および on* イベント属性は除去
//   - a: href（サイト内の相対URLも可）、rel="nofollow noopener"を付与
//   - img: src（http/httpsのみ）、alt
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	p.AllowStandardURLs()
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")

	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")

	return &postSanitizer{policy: p}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *postSanitizer) Sanitize(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return s.policy.Sanitize(rawHTML)
}
