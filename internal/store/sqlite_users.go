package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/safespeak/backend/internal/model/user"
)

// CreateUser 创建账号，用户名冲突时返回 user.ErrUserExists
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (user.User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, created_utc) VALUES (?, ?, ?)`,
		username, passwordHash, formatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return user.User{}, fmt.Errorf("read user id: %w", err)
	}

	return user.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password, created_utc FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (s *Store) UserByID(ctx context.Context, id int64) (user.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password, created_utc FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (user.User, error) {
	var (
		u       user.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}

	createdAt, err := parseTime(created)
	if err != nil {
		return user.User{}, err
	}
	u.CreatedAt = createdAt
	return u, nil
}
