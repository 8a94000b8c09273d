package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/middleware"
	"github.com/zhouzirui/safespeak/backend/internal/model/user"
	authService "github.com/zhouzirui/safespeak/backend/internal/service/auth"
	"github.com/zhouzirui/safespeak/backend/web"
)

// Accounts 页面所需的账号服务接口
type Accounts interface {
	Signup(ctx context.Context, username, password string) (user.User, error)
	Login(ctx context.Context, username, password string) (string, user.User, error)
	TTL() time.Duration
}

// Handler 注册、登录与登出页面
type Handler struct {
	accounts     Accounts
	pages        *web.Pages
	secureCookie bool
	logger       zerolog.Logger
}

// New 创建账户处理器。secureCookie 控制会话 Cookie 的 Secure 标记。
func New(accounts Accounts, pages *web.Pages, secureCookie bool, logger zerolog.Logger) *Handler {
	return &Handler{
		accounts:     accounts,
		pages:        pages,
		secureCookie: secureCookie,
		logger:       logger.With().Str("component", "auth").Logger(),
	}
}

// RegisterRoutes 注册账户相关路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/signup", h.render("signup.html", "Sign up"))
	r.Post("/signup", h.handleSignup)
	r.Get("/login", h.render("login.html", "Log in"))
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
}

func (h *Handler) render(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderStatus(w, http.StatusOK, page, web.PageData{Title: title})
	}
}

func (h *Handler) renderStatus(w http.ResponseWriter, status int, page string, data web.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.Render(w, page, data); err != nil {
		h.logger.Error().Err(err).Str("page", page).Msg("failed to render page")
	}
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, http.StatusBadRequest, "signup.html", web.PageData{Title: "Sign up", Error: "Invalid form"})
		return
	}

	_, err := h.accounts.Signup(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, authService.ErrMissingFields):
		h.renderStatus(w, http.StatusBadRequest, "signup.html", web.PageData{Title: "Sign up", Error: "Username and password are required"})
	case errors.Is(err, authService.ErrPasswordTooLong):
		h.renderStatus(w, http.StatusBadRequest, "signup.html", web.PageData{Title: "Sign up", Error: "Password must be at most 72 bytes"})
	case errors.Is(err, user.ErrUserExists):
		h.renderStatus(w, http.StatusConflict, "signup.html", web.PageData{Title: "Sign up", Error: "Username already taken"})
	case err != nil:
		h.logger.Error().Err(err).Msg("signup failed")
		h.renderStatus(w, http.StatusInternalServerError, "signup.html", web.PageData{Title: "Sign up", Error: "Something went wrong!"})
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, http.StatusBadRequest, "login.html", web.PageData{Title: "Log in", Error: "Invalid form"})
		return
	}

	token, account, err := h.accounts.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, authService.ErrInvalidCredentials), errors.Is(err, authService.ErrMissingFields):
		h.renderStatus(w, http.StatusUnauthorized, "login.html", web.PageData{Title: "Log in", Error: "Invalid credentials"})
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("login failed")
		h.renderStatus(w, http.StatusInternalServerError, "login.html", web.PageData{Title: "Log in", Error: "Something went wrong!"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.accounts.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info().Int64("user_id", account.ID).Msg("user logged in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
