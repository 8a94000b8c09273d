package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/cache"
	"github.com/zhouzirui/safespeak/backend/internal/config"
	"github.com/zhouzirui/safespeak/backend/internal/handler/analyze"
	"github.com/zhouzirui/safespeak/backend/internal/logging"
	"github.com/zhouzirui/safespeak/backend/internal/service/moderation"
)

func main() {
	text := flag.String("text", "", "待分析的文本")
	heuristic := flag.Bool("heuristic", false, "跳过远程分类器，仅使用关键词规则")
	useCache := flag.Bool("cache", false, "启用 Redis 结果缓存 (需要 REDIS_URL)")
	timeout := flag.Duration("timeout", 30*time.Second, "请求超时时间")
	flag.Parse()

	if *text == "" {
		flag.Usage()
		os.Exit(2)
	}

	envErr := godotenv.Load()

	// 本工具不需要 SECRET_KEY，未设置时填一个占位值让 config.Load 通过
	if os.Getenv("SECRET_KEY") == "" {
		_ = os.Setenv("SECRET_KEY", "analyzetester")
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("无法加载 .env，改用系统环境变量")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var primary moderation.Classifier
	if !*heuristic {
		primary = moderation.PrimaryFromConfig(ctx, cfg, logger)
	}

	var analysisCache cache.AnalysisCache = cache.Noop{}
	if *useCache && cfg.Cache.Enabled() {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis 连接失败")
		}
		defer client.Close()
		analysisCache = cache.NewRedisCache(client, cfg.Cache.TTL)
	}

	svc := moderation.NewService(primary, analysisCache, moderation.ConfigFrom(cfg.Moderation), logger)
	if err := run(ctx, svc, *text, os.Stdout, logger); err != nil {
		logger.Fatal().Err(err).Msg("分析失败")
	}
}

type report struct {
	analyze.Response
	Source string `json:"source"`
	Cached bool   `json:"cached"`
	TookMS int64  `json:"took_ms"`
}

func run(ctx context.Context, svc *moderation.Service, text string, out io.Writer, logger zerolog.Logger) error {
	start := time.Now()
	outcome, err := svc.Analyze(ctx, text)
	if err != nil {
		return err
	}

	r := report{
		Response: analyze.NewResponse(strings.TrimSpace(text), outcome),
		Source:   outcome.Source,
		Cached:   outcome.Cached,
		TookMS:   time.Since(start).Milliseconds(),
	}
	logger.Debug().Str("source", r.Source).Int64("took_ms", r.TookMS).Msg("analysis complete")

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
