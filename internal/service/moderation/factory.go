package moderation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/safespeak/backend/internal/config"
	"github.com/zhouzirui/safespeak/backend/internal/service/ai"
)

// PrimaryFromConfig 选择主分类器：配置了 Ark 时使用 LLM，
// 否则使用 OpenAI moderation，都没有时返回 nil（仅启发式）
func PrimaryFromConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) Classifier {
	if cfg.AI.Enabled() {
		classifier, err := ai.NewClassifier(ctx, cfg.AI)
		if err == nil {
			logger.Info().Str("model", cfg.AI.Model).Msg("llm classifier enabled")
			return classifier
		}
		logger.Warn().Err(err).Msg("llm classifier unavailable")
	}

	if cfg.Moderation.OpenAIKey != "" {
		logger.Info().Str("endpoint", cfg.Moderation.OpenAIURL).Msg("openai moderation enabled")
		return NewOpenAIClient(cfg.Moderation.OpenAIKey, cfg.Moderation.OpenAIURL, cfg.Moderation.OpenAIModel, cfg.Moderation.Timeout)
	}

	logger.Info().Msg("no remote classifier configured, using keyword heuristic")
	return nil
}

// ConfigFrom 从应用配置中提取熔断参数
func ConfigFrom(cfg config.ModerationConfig) Config {
	return Config{
		Timeout:            cfg.Timeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerCooldown:    cfg.BreakerCooldown,
	}
}
