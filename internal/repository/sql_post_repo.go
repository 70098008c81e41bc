package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/templeotrunks/internal/model"
)

const selectPostColumns = `
	SELECT p.id, p.title, p.body, p.pub_date,
	       c.id, c.name,
	       u.id, u.username, u.email, u.role
	FROM posts p
	JOIN categories c ON c.id = p.category_id
	JOIN users u ON u.id = p.user_id`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// SQLPostRepo はdatabase/sqlを使用した投稿リポジトリ。
type SQLPostRepo struct {
	db *sql.DB
}

// NewSQLPostRepo はSQLPostRepoを生成する。
func NewSQLPostRepo(db *sql.DB) *SQLPostRepo {
	return &SQLPostRepo{db: db}
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *SQLPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, selectPostColumns+` WHERE p.id = $1`, id)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return post, nil
}

// List は全投稿をpub_dateの指定順で返す。
func (r *SQLPostRepo) List(ctx context.Context, order model.SortOrder) ([]*model.Post, error) {
	var orderBy string
	switch order {
	case model.SortAscending:
		orderBy = ` ORDER BY p.pub_date ASC, p.id ASC`
	case model.SortDescending:
		orderBy = ` ORDER BY p.pub_date DESC, p.id DESC`
	default:
		return nil, fmt.Errorf("unknown sort order: %d", order)
	}

	rows, err := r.db.QueryContext(ctx, selectPostColumns+orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// CreateWithCategory はカテゴリと投稿を同一トランザクションで作成する。
func (r *SQLPostRepo) CreateWithCategory(ctx context.Context, post *model.Post, category *model.Category) error {
	if post.Author == nil {
		return fmt.Errorf("post author is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// カテゴリを作成
	err = tx.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`,
		category.Name,
	).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}

	// 投稿を作成
	err = tx.QueryRowContext(ctx,
		`INSERT INTO posts (title, body, pub_date, category_id, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		post.Title, post.Body, post.PubDate.UTC(), category.ID, post.Author.ID,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	post.Category = category
	return nil
}

func scanPost(s rowScanner) (*model.Post, error) {
	post := &model.Post{
		Category: &model.Category{},
		Author:   &model.User{},
	}
	var role int
	err := s.Scan(
		&post.ID, &post.Title, &post.Body, &post.PubDate,
		&post.Category.ID, &post.Category.Name,
		&post.Author.ID, &post.Author.Username, &post.Author.Email, &role,
	)
	if err != nil {
		return nil, err
	}

	post.Author.Role, err = model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// compile-time interface check
var _ PostRepository = (*SQLPostRepo)(nil)
