package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row to change does not exist (or is not owned by the caller).
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("already exists")
	// ErrNoFields is returned by partial updates with nothing to change.
	ErrNoFields = errors.New("no fields to update")
)

// dialect captures what differs between the supported SQL drivers.
type dialect struct {
	name       string
	driver     string
	returning  bool // INSERT ... RETURNING id
	numbered   bool // $1, $2 placeholders
	schema     []string
	uniqueCode func(error) bool
}

var dialects = map[string]dialect{
	"postgres": {
		name:      "postgres",
		driver:    "pgx",
		returning: true,
		numbered:  true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id       SERIAL PRIMARY KEY,
				username VARCHAR(255) UNIQUE NOT NULL,
				password VARCHAR(255) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id          SERIAL PRIMARY KEY,
				user_id     INTEGER NOT NULL,
				title       VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status      VARCHAR(16) NOT NULL DEFAULT 'Pending'
				            CHECK (status IN ('Pending', 'In Progress', 'Completed'))
			)`,
			`CREATE INDEX IF NOT EXISTS tasks_user_id_idx ON tasks (user_id)`,
		},
		uniqueCode: func(err error) bool {
			var pgErr *pgconn.PgError
			return errors.As(err, &pgErr) && pgErr.Code == "23505"
		},
	},
	"mysql": {
		name:   "mysql",
		driver: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id       INT NOT NULL PRIMARY KEY AUTO_INCREMENT,
				username VARCHAR(255) NOT NULL UNIQUE,
				password VARCHAR(255) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id          INT NOT NULL PRIMARY KEY AUTO_INCREMENT,
				user_id     INT NOT NULL,
				title       VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				status      ENUM('Completed', 'In Progress', 'Pending') NOT NULL DEFAULT 'Pending',
				INDEX tasks_user_id_idx (user_id)
			)`,
		},
		uniqueCode: func(err error) bool {
			var myErr *mysql.MySQLError
			return errors.As(err, &myErr) && myErr.Number == 1062
		},
	},
	"sqlite3": {
		name:      "sqlite3",
		driver:    "sqlite3",
		returning: false,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id       INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id     INTEGER NOT NULL,
				title       TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status      TEXT NOT NULL DEFAULT 'Pending'
				            CHECK (status IN ('Pending', 'In Progress', 'Completed'))
			)`,
			`CREATE INDEX IF NOT EXISTS tasks_user_id_idx ON tasks (user_id)`,
		},
		uniqueCode: func(err error) bool {
			var liteErr sqlite3.Error
			return errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
		},
	},
}

// SQLStore is the data access layer for users and tasks.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	cache   TaskCache
}

// Open connects to the database for driver ("postgres", "mysql" or "sqlite3")
// and pings it. A nil cache disables task list caching.
func Open(ctx context.Context, driver, dsn string, cache TaskCache) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d.name == "sqlite3" {
		// one writer at a time; also keeps shared in-memory databases alive
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if cache == nil {
		cache = NoCache{}
	}
	return &SQLStore{db: db, dialect: d, cache: cache}, nil
}

// Close closes the underlying pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the users and tasks tables if they don't exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for drivers that need it.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insert runs an INSERT and returns the generated id.
func (s *SQLStore) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if s.dialect.returning {
		var id int64
		err := s.db.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// setClause accumulates "col = ?" pairs for partial updates.
type setClause struct {
	cols []string
	args []any
}

func (c *setClause) add(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *setClause) String() string {
	return strings.Join(c.cols, ", ")
}
