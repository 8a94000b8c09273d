package middleware

import (
	"context"
	"net/http"

	"github.com/zhouzirui/safespeak/backend/internal/service/auth"
	"github.com/zhouzirui/safespeak/backend/pkg/utils"
)

// SessionCookie 保存会话令牌的 Cookie 名称
const SessionCookie = "safespeak_session"

type contextKey string

const userContextKey contextKey = "session_user"

// SessionUser 已认证请求的调用者
type SessionUser struct {
	ID       int64
	Username string
}

// TokenParser 校验会话令牌
type TokenParser interface {
	ParseToken(raw string) (*auth.Claims, error)
}

// WithUser 将会话用户写入 context
func WithUser(ctx context.Context, u SessionUser) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext 读取鉴权中间件写入的会话用户
func UserFromContext(ctx context.Context) (SessionUser, bool) {
	u, ok := ctx.Value(userContextKey).(SessionUser)
	return u, ok
}

func sessionFromRequest(parser TokenParser, r *http.Request) (SessionUser, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return SessionUser{}, false
	}
	claims, err := parser.ParseToken(cookie.Value)
	if err != nil {
		return SessionUser{}, false
	}
	return SessionUser{ID: claims.UserID, Username: claims.Username}, true
}

// RequireAPIUser 无有效会话时返回 401 JSON
func RequireAPIUser(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := sessionFromRequest(parser, r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequirePageUser 未登录访问页面时跳转到登录页
func RequirePageUser(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := sessionFromRequest(parser, r)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
