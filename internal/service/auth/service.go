package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/safespeak/backend/internal/model/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("username and password are required")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// maxPasswordBytes bcrypt 只接受 72 字节以内的密码
const maxPasswordBytes = 72

const issuer = "safespeak"

// Config 描述会话签名参数。
type Config struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

// Claims 会话 Cookie 中携带的载荷
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service 负责注册、登录以及会话令牌的签发与校验。
type Service struct {
	users  user.Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewService 创建账号服务，未设置的 TTL 与 bcrypt 成本使用默认值
func NewService(users user.Store, cfg Config) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:  users,
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		cost:   cost,
		now:    time.Now,
	}
}

// TTL 会话有效期
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Signup 对密码做哈希并创建账号
func (s *Service) Signup(ctx context.Context, username, password string) (user.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return user.User{}, ErrMissingFields
	}
	if len(password) > maxPasswordBytes {
		return user.User{}, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		return user.User{}, err
	}
	return created, nil
}

// Login 校验凭据并签发会话令牌
func (s *Service) Login(ctx context.Context, username, password string) (string, user.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", user.User{}, ErrMissingFields
	}

	account, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, user.ErrUserNotFound) {
		return "", user.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", user.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", user.User{}, ErrInvalidCredentials
	}

	token, err := s.issue(account)
	if err != nil {
		return "", user.User{}, err
	}
	return token, account, nil
}

func (s *Service) issue(account user.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   account.ID,
		Username: account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// ParseToken 校验会话令牌并返回载荷
func (s *Service) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
