// Package model はドメインモデルを定義する。
package model

import "time"

// PostDateFormat は投稿日時の表示フォーマット。
// 例: "Wednesday, 03/05/2025"
const PostDateFormat = "Monday, 01/02/2006"

// UncategorizedName は投稿作成時に自動作成されるカテゴリ名。
const UncategorizedName = "Uncategorized"

// Category は投稿のカテゴリを表す。
// 同名カテゴリの重複は許容する。
type Category struct {
	ID   int64
	Name string
}

// Post はブログ記事を表す。
type Post struct {
	ID       int64
	Title    string
	Body     string
	PubDate  time.Time
	Category *Category
	Author   *User
}

// NewPost は投稿を生成する。pubDateがゼロ値の場合は現在時刻（UTC）を使う。
func NewPost(title, body string, category *Category, author *User, pubDate time.Time) *Post {
	if pubDate.IsZero() {
		pubDate = time.Now().UTC()
	}
	return &Post{
		Title:    title,
		Body:     body,
		PubDate:  pubDate,
		Category: category,
		Author:   author,
	}
}

// PostDate はPostDateFormatで整形した投稿日時を返す。
func (p *Post) PostDate() string {
	return p.PubDate.Format(PostDateFormat)
}

// SortOrder は投稿一覧の並び順を表す。
type SortOrder int

const (
	// SortAscending は投稿日時の昇順。
	SortAscending SortOrder = iota
	// SortDescending は投稿日時の降順。
	SortDescending
)
