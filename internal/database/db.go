package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect は接続先データベースの種類を表す。
type Dialect string

const (
	// DialectPostgres はPostgreSQL。
	DialectPostgres Dialect = "postgres"
	// DialectSQLite はSQLite。
	DialectSQLite Dialect = "sqlite3"
)

// ParseURL はデータベースURLからDialectとドライバに渡すDSNを取り出す。
// "postgres://" / "postgresql://" はそのままlib/pqに渡す。
// "sqlite3://<path>" はパス部分をDSNとし、外部キー制約を有効にする。
func ParseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite3://"):
		dsn := strings.TrimPrefix(databaseURL, "sqlite3://")
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite3 database path is empty")
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return DialectSQLite, dsn + sep + "_foreign_keys=on", nil
	default:
		return "", "", fmt.Errorf("unsupported database URL scheme: %s", maskScheme(databaseURL))
	}
}

// Open はデータベース接続を開く。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	dialect, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLiteは書き込みが直列化されるため、接続を1本に絞る
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

func maskScheme(databaseURL string) string {
	if i := strings.Index(databaseURL, "://"); i >= 0 {
		return databaseURL[:i]
	}
	return "(none)"
}
