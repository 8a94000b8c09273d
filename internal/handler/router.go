package handler

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/handler/analyze"
	authHandler "github.com/zhouzirui/safespeak/backend/internal/handler/auth"
	"github.com/zhouzirui/safespeak/backend/internal/handler/dashboard"
	"github.com/zhouzirui/safespeak/backend/internal/handler/live"
	"github.com/zhouzirui/safespeak/backend/internal/middleware"
	authService "github.com/zhouzirui/safespeak/backend/internal/service/auth"
	"github.com/zhouzirui/safespeak/backend/internal/service/moderation"
	statsService "github.com/zhouzirui/safespeak/backend/internal/service/stats"
	"github.com/zhouzirui/safespeak/backend/pkg/utils"
	"github.com/zhouzirui/safespeak/backend/web"
)

// Dependencies HTTP 层依赖的服务集合
type Dependencies struct {
	Auth           *authService.Service
	Moderation     *moderation.Service
	Stats          *statsService.Service
	Pages          *web.Pages
	Static         fs.FS
	Logger         zerolog.Logger
	SecureCookies  bool
	AllowedOrigins []string
	// Ready 供 /healthz 检查后端状态，为 nil 时视为始终就绪
	Ready func(r *http.Request) error
}

// NewRouter 将HTTP路由连接到核心服务
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(deps.AllowedOrigins))

	analyzeHandler := analyze.New(deps.Moderation, deps.Stats, deps.Logger)
	accountHandler := authHandler.New(deps.Auth, deps.Pages, deps.SecureCookies, deps.Logger)
	dashboardHandler := dashboard.New(deps.Stats, deps.Pages, deps.Logger)
	liveHandler := live.NewWebSocketHandler(analyzeHandler, deps.Logger)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(req); err != nil {
				utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "classifier": deps.Moderation.PrimaryName()})
	})
	if deps.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(deps.Static))))
	}

	accountHandler.RegisterRoutes(r)

	// 页面路由：未登录跳转到 /login
	r.Group(func(pages chi.Router) {
		pages.Use(middleware.RequirePageUser(deps.Auth))
		pages.Get("/", func(w http.ResponseWriter, req *http.Request) {
			session, _ := middleware.UserFromContext(req.Context())
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := deps.Pages.Render(w, "index.html", web.PageData{Username: session.Username}); err != nil {
				deps.Logger.Error().Err(err).Msg("failed to render index")
			}
		})
		dashboardHandler.RegisterPage(pages)
	})

	// API 路由：未登录返回 401 JSON
	r.Group(func(api chi.Router) {
		api.Use(middleware.RequireAPIUser(deps.Auth))
		analyzeHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
		api.Route("/api", dashboardHandler.RegisterAPI)
	})

	return r
}
