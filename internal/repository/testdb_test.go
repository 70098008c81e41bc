package repository

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/hitoshi/templeotrunks/internal/database"
	"github.com/hitoshi/templeotrunks/internal/model"
)

// newTestDB はテストごとに独立したインメモリSQLiteを用意し、マイグレーションを適用する。
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite3://file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.MigrateDB(db, database.DialectSQLite); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// seedUsers は管理ユーザーと一般ユーザーを作成して返す。
func seedUsers(t *testing.T, db *sql.DB) (admin, normal *model.User) {
	t.Helper()

	admin = &model.User{Username: "admin", Password: "password", Email: "admin@example.com", Role: model.RoleSuper}
	normal = &model.User{Username: "user", Password: "security", Email: "user@example", Role: model.RoleNormal}

	if err := NewSQLUserRepo(db).CreateAll(context.Background(), []*model.User{admin, normal}); err != nil {
		t.Fatalf("failed to seed users: %v", err)
	}
	return admin, normal
}
