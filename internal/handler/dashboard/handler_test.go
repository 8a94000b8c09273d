package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/safespeak/backend/internal/middleware"
	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
	statsService "github.com/zhouzirui/safespeak/backend/internal/service/stats"
	"github.com/zhouzirui/safespeak/backend/web"
)

func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithUser(r.Context(), middleware.SessionUser{ID: 3, Username: "gina"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRouter(t *testing.T) (http.Handler, *statsService.Service) {
	t.Helper()
	pages, err := web.LoadPages()
	require.NoError(t, err)

	svc := statsService.NewService(statsService.NewMemoryRepository())
	h := New(svc, pages, zerolog.Nop())

	r := chi.NewRouter()
	r.Use(asUser)
	h.RegisterPage(r)
	r.Route("/api", h.RegisterAPI)
	return r, svc
}

func record(t *testing.T, svc *statsService.Service, label, severity string, score float64) {
	t.Helper()
	_, err := svc.Record(context.Background(), stats.MsgStat{UserID: 3, Msg: "m", Label: label, Severity: severity, Score: score})
	require.NoError(t, err)
}

func TestDashboardJSON(t *testing.T) {
	router, svc := newRouter(t)
	record(t, svc, "insult", "high", 0.9)
	record(t, svc, "neutral", "low", 0.01)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var board statsService.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Equal(t, 2, board.Total)
	assert.Equal(t, 1, board.Toxic)
	assert.Equal(t, 1, board.Safe)
	assert.Equal(t, []statsService.LabelCount{{Label: "insult", Count: 1}}, board.LabelCounts)
	require.Len(t, board.RecentToxic, 1)
}

func TestDashboardPage(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No toxic messages")
	assert.Contains(t, rec.Body.String(), "gina")
}

func TestDashboardStreamPushesUpdates(t *testing.T) {
	router, svc := newRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/dashboard/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readSummary(t, reader)
	assert.Equal(t, stats.Summary{}, first)

	record(t, svc, "threat", "medium", 0.6)
	second := readSummary(t, reader)
	assert.Equal(t, stats.Summary{Total: 1, Toxic: 1, Safe: 0}, second)
}

func readSummary(t *testing.T, reader *bufio.Reader) stats.Summary {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var summary stats.Summary
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &summary))
		return summary
	}
}
