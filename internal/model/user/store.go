package user

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrUserExists   = errors.New("username already taken")
	ErrUserNotFound = errors.New("user not found")
)

// Store 账号存储接口
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
}

// MemoryStore 基于内存的 Store 实现，用于测试和本地运行
type MemoryStore struct {
	mu     sync.RWMutex
	items  []User
	nextID int64
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// CreateUser 注册新账号，用户名唯一
func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.Username == username {
			return User{}, ErrUserExists
		}
	}

	u := User{
		ID:           s.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.nextID++
	s.items = append(s.items, u)
	return u, nil
}

// UserByUsername 按用户名查找账号
func (s *MemoryStore) UserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.Username == username {
			return item, nil
		}
	}
	return User{}, ErrUserNotFound
}

// UserByID 按 ID 查找账号
func (s *MemoryStore) UserByID(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return User{}, ErrUserNotFound
}
