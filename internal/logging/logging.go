package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/safespeak/backend/internal/config"
)

// New 创建进程日志：开发环境输出到控制台，其他环境输出 JSON。
// 同时设置为 zerolog 全局日志。
func New(cfg config.ServerConfig) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	logger := newWithWriter(out, cfg.LogLevel)
	log.Logger = logger
	return logger
}

func newWithWriter(out io.Writer, level string) zerolog.Logger {
	return zerolog.New(out).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", "safespeak").
		Logger()
}

func parseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || raw == "" {
		return zerolog.InfoLevel
	}
	return level
}
