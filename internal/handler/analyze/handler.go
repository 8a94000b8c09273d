package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/middleware"
	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
	"github.com/zhouzirui/safespeak/backend/internal/service/moderation"
	"github.com/zhouzirui/safespeak/backend/pkg/utils"
)

var (
	// ErrEmptyMessage 表示消息在去除空白后为空。
	ErrEmptyMessage = errors.New("empty message")
	// ErrUnavailable 表示分类链全部失败。
	ErrUnavailable = errors.New("analysis unavailable")
)

// Analyzer 对消息进行分类
type Analyzer interface {
	Analyze(ctx context.Context, text string) (moderation.Outcome, error)
}

// Recorder 保存分析记录供仪表盘使用
type Recorder interface {
	Record(ctx context.Context, stat stats.MsgStat) (stats.MsgStat, error)
}

// Request POST /analyze 请求体
type Request struct {
	Message string `json:"message"`
}

// Response 分析结果，HTTP 与实时连接共用
type Response struct {
	Message   string             `json:"message"`
	Label     string             `json:"label"`
	Severity  string             `json:"severity"`
	Score     float64            `json:"score"`
	AllScores map[string]float64 `json:"all_scores"`
}

// Handler 消息分析的HTTP处理器
type Handler struct {
	analyzer Analyzer
	recorder Recorder
	logger   zerolog.Logger
}

// New 创建分析处理器
func New(analyzer Analyzer, recorder Recorder, logger zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		recorder: recorder,
		logger:   logger.With().Str("component", "analyze").Logger(),
	}
}

// RegisterRoutes 注册分析路由；调用方负责挂载鉴权中间件。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Process(r.Context(), session.ID, payload.Message)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		utils.RespondError(w, http.StatusServiceUnavailable, ErrUnavailable.Error())
	default:
		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

// Process 分析用户的一条消息并记录结果
func (h *Handler) Process(ctx context.Context, userID int64, message string) (Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Response{}, ErrEmptyMessage
	}

	outcome, err := h.analyzer.Analyze(ctx, message)
	if errors.Is(err, moderation.ErrEmptyText) {
		return Response{}, ErrEmptyMessage
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("analysis failed")
		return Response{}, ErrUnavailable
	}

	stat := stats.MsgStat{
		UserID:   userID,
		Msg:      message,
		Label:    string(outcome.Label),
		Severity: string(outcome.Severity),
		Score:    outcome.Score,
	}
	if _, err := h.recorder.Record(ctx, stat); err != nil {
		// 记录失败不影响返回结果，只是仪表盘少一条
		h.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to record message stat")
	}

	h.logger.Debug().
		Int64("user_id", userID).
		Str("label", stat.Label).
		Str("severity", stat.Severity).
		Str("source", outcome.Source).
		Bool("cached", outcome.Cached).
		Msg("message analysed")

	return NewResponse(message, outcome), nil
}

// NewResponse 将分析结果转换为响应格式，
// 分数换算为百分比并保留两位小数
func NewResponse(message string, outcome moderation.Outcome) Response {
	all := make(map[string]float64, len(outcome.Scores))
	for label, score := range outcome.Scores {
		all[string(label)] = score
	}
	return Response{
		Message:   message,
		Label:     string(outcome.Label),
		Severity:  string(outcome.Severity),
		Score:     math.Round(outcome.Score*10000) / 100,
		AllScores: all,
	}
}
