package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore keeps sessions in a sessions table on SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// OpenSQLStore connects to the database for kind (sqlite or postgres). The
// schema must already be migrated; see RunMigrations.
func OpenSQLStore(ctx context.Context, kind, dsn string) (*SQLStore, error) {
	db, err := OpenDB(ctx, kind, dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, kind), nil
}

func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Dialect() string {
	return s.dialect
}

// OpenDB opens and pings the database. For sqlite, dsn is a file path and
// its parent directory is created.
func OpenDB(ctx context.Context, kind, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s session store requires a dsn", kind)
	}

	var (
		db  *sql.DB
		err error
	)
	switch kind {
	case StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(sqlitePath(dsn)), 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)
	case StorePostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", kind)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// sqliteDSN appends the connection pragmas, keeping any query the dsn
// already carries.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// sqlitePath strips a file: scheme and query string, leaving the path on disk.
func sqlitePath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	return strings.TrimPrefix(path, "file:")
}

func (s *SQLStore) Get(ctx context.Context, token string) (Record, error) {
	var payload string
	var updatedMillis int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data, updated_at FROM sessions WHERE token = ?`), token).
		Scan(&payload, &updatedMillis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get session: %w", err)
	}
	return Record{
		Token:     token,
		Payload:   []byte(payload),
		UpdatedAt: time.UnixMilli(updatedMillis),
	}, nil
}

func (s *SQLStore) Put(ctx context.Context, token string, payload []byte, now time.Time) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (token, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`), token, string(payload), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE token = ?`), token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE updated_at < ?`), cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token, data, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var payload string
		var updatedMillis int64
		if err := rows.Scan(&rec.Token, &payload, &updatedMillis); err != nil {
			return nil, err
		}
		rec.Payload = []byte(payload)
		rec.UpdatedAt = time.UnixMilli(updatedMillis)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	return rebind(s.dialect, query)
}

func rebind(dialect, query string) string {
	if dialect != StorePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
