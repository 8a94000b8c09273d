package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/handler/analyze"
	"github.com/zhouzirui/safespeak/backend/internal/metrics"
	"github.com/zhouzirui/safespeak/backend/internal/middleware"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Processor 分析用户消息
type Processor interface {
	Process(ctx context.Context, userID int64, message string) (analyze.Response, error)
}

// WebSocketHandler 实时分析的 WebSocket 处理器
type WebSocketHandler struct {
	processor Processor
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(processor Processor, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		processor: processor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With().Str("component", "live").Logger(),
	}
}

// RegisterRoutes 注册WebSocket路由；调用方负责挂载鉴权中间件。
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/analyze", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type textMessage struct {
	Message string `json:"message"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log := h.logger.With().Str("conn_id", connID).Int64("user_id", session.ID).Logger()
	log.Info().Msg("live connection opened")

	metrics.LiveConnections.Inc()
	defer metrics.LiveConnections.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("read error")
			}
			log.Info().Msg("live connection closed")
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		// 帧格式错误只回复错误，不断开连接
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Msg("invalid frame")
			h.sendError(conn, "invalid message")
			continue
		}

		h.handleMessage(ctx, conn, session.ID, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, userID int64, msg *inboundMessage) {
	if msg.Type != "message" {
		h.sendError(conn, "unsupported message type: "+msg.Type)
		return
	}

	var payload textMessage
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		h.sendError(conn, "invalid message")
		return
	}

	resp, err := h.processor.Process(ctx, userID, payload.Message)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.send(conn, "analysis", resp)
}

func (h *WebSocketHandler) send(conn *websocket.Conn, kind string, data interface{}) {
	msg := outgoingMessage{Type: kind, Data: data, Timestamp: time.Now().Unix()}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn().Err(err).Str("type", kind).Msg("write failed")
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", map[string]string{"message": message})
}

// pingLoop 定期发送ping消息。WriteControl 可与其他写操作并发调用。
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
