// Package sqlstore is the users.UserRepo backed by database/sql.
// SQLite (modernc.org/sqlite, pure Go) and PostgreSQL (lib/pq) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/connectspace/connectspace-api/internal/errors"
	"github.com/connectspace/connectspace-api/users"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const userColumns = "id, first_name, last_name, email, phone, password_hash, user_type, verified, blocked, created_at, last_login"

var _ users.UserRepo = (*Store)(nil)

type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and verifies the connection.
// Call Migrate before first use.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("[sqlstore Open] unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("[sqlstore Open] sql.Open: %w", err)
	}
	if driver == DriverSQLite {
		// single writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[sqlstore Open] ping: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormalizeEmail(user.Email)

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID, user.FirstName, user.LastName, user.Email, user.Phone, user.PasswordHash,
		string(user.UserType), user.Verified, user.Blocked, toMillis(user.CreatedAt), toMillis(user.LastLogin),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrDuplicateAccount
		}
		return fmt.Errorf("[sqlstore Create] insert: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, user *users.User) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET
		first_name = ?, last_name = ?, email = ?, phone = ?, password_hash = ?,
		user_type = ?, verified = ?, blocked = ?, last_login = ?
		WHERE id = ?`),
		user.FirstName, user.LastName, users.NormalizeEmail(user.Email), user.Phone, user.PasswordHash,
		string(user.UserType), user.Verified, user.Blocked, toMillis(user.LastLogin), user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrDuplicateAccount
		}
		return fmt.Errorf("[sqlstore Update] update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("[sqlstore Update] rows affected: %w", err)
	}
	if n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+userColumns+" FROM users WHERE email = ?"), users.NormalizeEmail(email))
	return scanUser(row)
}

func (s *Store) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	return scanUser(row)
}

func (s *Store) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT "+userColumns+" FROM users ORDER BY created_at, id LIMIT ? OFFSET ?"), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("[sqlstore List] query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	list := make([]*users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		u         users.User
		userType  string
		createdAt int64
		lastLogin int64
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash,
		&userType, &u.Verified, &u.Blocked, &createdAt, &lastLogin)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[sqlstore] scan user: %w", err)
	}
	u.UserType = users.UserType(userType)
	u.CreatedAt = fromMillis(createdAt)
	u.LastLogin = fromMillis(lastLogin)
	return &u, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
