package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/ncobase/passport/paging"
	"github.com/ncobase/passport/structs"
)

const userColumns = `id, username, email, password_hash, first_name, last_name,
	phone_number, role, status, created_at, updated_at, version`

// schema statements are executed one at a time; the pgx driver does not
// accept multi-statement commands.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id            %s,
	username      VARCHAR(50)  NOT NULL UNIQUE,
	email         VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	first_name    VARCHAR(50)  NOT NULL,
	last_name     VARCHAR(50)  NOT NULL,
	phone_number  VARCHAR(20),
	role          VARCHAR(20)  NOT NULL DEFAULT 'USER',
	status        VARCHAR(20)  NOT NULL DEFAULT 'ACTIVE',
	created_at    TIMESTAMP    NOT NULL,
	updated_at    TIMESTAMP    NOT NULL,
	version       INTEGER      NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_status ON users (status)`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users (role)`,
	`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users (created_at)`,
}

type sqlUserRepository struct {
	db       *sql.DB
	postgres bool
}

// NewUserRepository creates the SQL-backed repository and ensures the schema
// exists. driver is the configured database driver name.
func NewUserRepository(ctx context.Context, db *sql.DB, driver string) (UserRepository, error) {
	r := &sqlUserRepository{
		db:       db,
		postgres: driver == "postgres" || driver == "pgx",
	}
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.postgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range schema {
		if strings.Contains(stmt, "%s") {
			stmt = fmt.Sprintf(stmt, idColumn)
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("repository: initializing schema: %w", err)
		}
	}
	return r, nil
}

// translateWriteErr maps driver unique-violation errors to DuplicateError.
func translateWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &DuplicateError{Field: constraintField(sqliteErr.Error()), cause: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &DuplicateError{Field: constraintField(pgErr.ConstraintName), cause: err}
	}
	return err
}

func constraintField(constraint string) string {
	switch {
	case strings.Contains(constraint, "username"):
		return "username"
	case strings.Contains(constraint, "email"):
		return "email"
	}
	return ""
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *sqlUserRepository) rebind(query string) string {
	if !r.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *sqlUserRepository) Create(ctx context.Context, user *structs.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 0

	const insert = `INSERT INTO users (username, email, password_hash, first_name,
		last_name, phone_number, role, status, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := []any{
		user.Username, user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.PhoneNumber, user.Role, user.Status,
		user.CreatedAt, user.UpdatedAt, user.Version,
	}

	if r.postgres {
		row := r.db.QueryRowContext(ctx, r.rebind(insert+" RETURNING id"), args...)
		return translateWriteErr(row.Scan(&user.ID))
	}

	res, err := r.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return translateWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (r *sqlUserRepository) findOne(ctx context.Context, where string, args ...any) (*structs.User, error) {
	query := r.rebind("SELECT " + userColumns + " FROM users WHERE " + where)
	row := r.db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (r *sqlUserRepository) FindByID(ctx context.Context, id int64) (*structs.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *sqlUserRepository) FindByUsername(ctx context.Context, username string) (*structs.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *sqlUserRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*structs.User, error) {
	return r.findOne(ctx, "username = ? OR email = ?", identifier, identifier)
}

func (r *sqlUserRepository) exists(ctx context.Context, where string, args ...any) (bool, error) {
	query := r.rebind("SELECT COUNT(1) FROM users WHERE " + where)
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sqlUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *sqlUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *sqlUserRepository) ExistsByUsernameAndIDNot(ctx context.Context, username string, id int64) (bool, error) {
	return r.exists(ctx, "username = ? AND id <> ?", username, id)
}

func (r *sqlUserRepository) ExistsByEmailAndIDNot(ctx context.Context, email string, id int64) (bool, error) {
	return r.exists(ctx, "email = ? AND id <> ?", email, id)
}

func (r *sqlUserRepository) Update(ctx context.Context, user *structs.User) error {
	user.UpdatedAt = time.Now().UTC()

	const update = `UPDATE users SET username = ?, email = ?, password_hash = ?,
		first_name = ?, last_name = ?, phone_number = ?, role = ?, status = ?,
		updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`

	res, err := r.db.ExecContext(ctx, r.rebind(update),
		user.Username, user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.PhoneNumber, user.Role, user.Status,
		user.UpdatedAt, user.ID, user.Version,
	)
	if err != nil {
		return translateWriteErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleWrite
	}
	user.Version++
	return nil
}

var sortColumns = map[string]string{
	"id":        "id",
	"username":  "username",
	"email":     "email",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func orderClause(p *paging.Params) string {
	column, ok := sortColumns[p.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if p.Direction == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s LIMIT %d OFFSET %d", column, direction, p.Size, p.Offset())
}

func (r *sqlUserRepository) findPage(ctx context.Context, where string, p *paging.Params, args ...any) ([]*structs.User, int64, error) {
	p.Normalize()
	clause := ""
	if where != "" {
		clause = " WHERE " + where
	}

	var total int64
	countQuery := r.rebind("SELECT COUNT(1) FROM users" + clause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := r.rebind("SELECT " + userColumns + " FROM users" + clause + orderClause(p))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*structs.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *sqlUserRepository) List(ctx context.Context, p *paging.Params) ([]*structs.User, int64, error) {
	return r.findPage(ctx, "", p)
}

func (r *sqlUserRepository) Search(ctx context.Context, term string, p *paging.Params) ([]*structs.User, int64, error) {
	pattern := "%" + term + "%"
	return r.findPage(ctx,
		"username LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
		p, pattern, pattern, pattern, pattern)
}

func (r *sqlUserRepository) FindByStatus(ctx context.Context, status structs.Status, p *paging.Params) ([]*structs.User, int64, error) {
	return r.findPage(ctx, "status = ?", p, status)
}

func (r *sqlUserRepository) FindByRole(ctx context.Context, role structs.Role, p *paging.Params) ([]*structs.User, int64, error) {
	return r.findPage(ctx, "role = ?", p, role)
}

func (r *sqlUserRepository) FindCreatedAfter(ctx context.Context, cutoff time.Time, p *paging.Params) ([]*structs.User, int64, error) {
	return r.findPage(ctx, "created_at > ?", p, cutoff)
}

func (r *sqlUserRepository) count(ctx context.Context, where string, args ...any) (int64, error) {
	clause := ""
	if where != "" {
		clause = " WHERE " + where
	}
	var n int64
	err := r.db.QueryRowContext(ctx, r.rebind("SELECT COUNT(1) FROM users"+clause), args...).Scan(&n)
	return n, err
}

func (r *sqlUserRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "")
}

func (r *sqlUserRepository) CountByStatus(ctx context.Context, status structs.Status) (int64, error) {
	return r.count(ctx, "status = ?", status)
}

func (r *sqlUserRepository) CountByRole(ctx context.Context, role structs.Role) (int64, error) {
	return r.count(ctx, "role = ?", role)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*structs.User, error) {
	var u structs.User
	var phone sql.NullString
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &phone, &u.Role, &u.Status, &u.CreatedAt,
		&u.UpdatedAt, &u.Version,
	)
	if err != nil {
		return nil, err
	}
	u.PhoneNumber = phone.String
	return &u, nil
}
