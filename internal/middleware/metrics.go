package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/safespeak/backend/internal/metrics"
)

// Metrics 记录 Prometheus 请求计数与耗时
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		switch {
		case status != 0:
		case strings.EqualFold(r.Header.Get("Upgrade"), "websocket"):
			// 被接管的连接不会写入状态码
			status = http.StatusSwitchingProtocols
		default:
			status = http.StatusOK
		}
		path := normalizePath(r.URL.Path)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath 限制标签基数
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}
	switch path {
	case "/", "/analyze", "/login", "/signup", "/logout", "/dashboard",
		"/api/dashboard", "/api/dashboard/stream", "/ws/analyze", "/healthz", "/metrics":
		return path
	}
	return "other"
}
