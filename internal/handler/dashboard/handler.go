package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/middleware"
	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
	statsService "github.com/zhouzirui/safespeak/backend/internal/service/stats"
	"github.com/zhouzirui/safespeak/backend/pkg/utils"
	"github.com/zhouzirui/safespeak/backend/web"
)

const keepAliveInterval = 15 * time.Second

// Source 提供用户统计数据和实时计数更新
type Source interface {
	Dashboard(ctx context.Context, userID int64) (statsService.Dashboard, error)
	Summary(ctx context.Context, userID int64) (stats.Summary, error)
	Subscribe(userID int64) (<-chan stats.Summary, func())
}

// Handler 仪表盘页面、JSON 接口与实时统计流
type Handler struct {
	source Source
	pages  *web.Pages
	logger zerolog.Logger
}

// New 创建仪表盘处理器
func New(source Source, pages *web.Pages, logger zerolog.Logger) *Handler {
	return &Handler{
		source: source,
		pages:  pages,
		logger: logger.With().Str("component", "dashboard").Logger(),
	}
}

// RegisterPage 注册仪表盘页面路由
func (h *Handler) RegisterPage(r chi.Router) {
	r.Get("/dashboard", h.handlePage)
}

// RegisterAPI 注册 JSON 与 SSE 接口
func (h *Handler) RegisterAPI(r chi.Router) {
	r.Get("/dashboard", h.handleJSON)
	r.Get("/dashboard/stream", h.handleStream)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.UserFromContext(r.Context())
	board, err := h.source.Dashboard(r.Context(), session.ID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", session.ID).Msg("failed to build dashboard")
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := web.PageData{Title: "Dashboard", Username: session.Username, Dashboard: board}
	if err := h.pages.Render(w, "dashboard.html", data); err != nil {
		h.logger.Error().Err(err).Msg("failed to render dashboard")
	}
}

func (h *Handler) handleJSON(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	board, err := h.source.Dashboard(r.Context(), session.ID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", session.ID).Msg("failed to build dashboard")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	utils.RespondJSON(w, http.StatusOK, board)
}

// handleStream 先推送当前计数，之后推送该用户的每次更新
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, cancel := h.source.Subscribe(session.ID)
	defer cancel()

	current, err := h.source.Summary(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEEvent(w, flusher, "summary", current); err != nil {
		return
	}

	ctx := r.Context()
	h.logger.Debug().Int64("user_id", session.ID).Msg("dashboard stream opened")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Int64("user_id", session.ID).Msg("dashboard stream closed")
			return
		case summary, open := <-updates:
			if !open {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "summary", summary); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
