package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// ErrMissingSecret 未配置 SECRET_KEY 时返回
var ErrMissingSecret = errors.New("SECRET_KEY must be set")

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Store      StoreConfig
	AI         AIConfig
	Moderation ModerationConfig
	Cache      CacheConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	moderation, err := loadModerationConfig()
	if err != nil {
		return nil, err
	}

	cache, err := loadCacheConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Auth:       auth,
		Store:      StoreConfig{Path: getEnvOrDefault("DATABASE_PATH", "safespeak.db")},
		AI:         ai,
		Moderation: moderation,
		Cache:      cache,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr     string
	Env      string
	LogLevel string
}

// IsDevelopment 是否使用便于阅读的控制台日志
func (c ServerConfig) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		Env:      strings.ToLower(getEnvOrDefault("APP_ENV", "development")),
		LogLevel: strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AuthConfig 描述登录会话配置。
type AuthConfig struct {
	SecretKey  string
	SessionTTL time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		return AuthConfig{}, ErrMissingSecret
	}

	ttl, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{SecretKey: secret, SessionTTL: ttl}, nil
}

// StoreConfig 描述 SQLite 存储位置。
type StoreConfig struct {
	Path string
}

// AIConfig 描述大模型分类器相关配置。
type AIConfig struct {
	APIKey            string
	AccessKey         string
	SecretKey         string
	Model             string
	BaseURL           string
	Region            string
	Temperature       *float64
	MaxTokens         *int
	ClassifierEnabled bool
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.ClassifierEnabled && c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		// 评分需要可复现
		zero := 0.0
		temperature = &zero
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	enabled, err := parseBoolEnv("AI_CLASSIFIER_ENABLED", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:            strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:         strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:         strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:             strings.TrimSpace(os.Getenv("Model")),
		BaseURL:           getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:            getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:       temperature,
		MaxTokens:         maxTokens,
		ClassifierEnabled: enabled,
	}, nil
}

// ModerationConfig 控制外部审核接口、超时与熔断。
type ModerationConfig struct {
	OpenAIKey          string
	OpenAIURL          string
	OpenAIModel        string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration
}

func loadModerationConfig() (ModerationConfig, error) {
	timeout, err := parseDurationEnv("CLASSIFIER_TIMEOUT", 10*time.Second)
	if err != nil {
		return ModerationConfig{}, err
	}

	cooldown, err := parseDurationEnv("BREAKER_COOLDOWN", 30*time.Second)
	if err != nil {
		return ModerationConfig{}, err
	}

	maxFailures := uint32(5)
	if override, err := parseOptionalIntEnv("BREAKER_MAX_FAILURES"); err != nil {
		return ModerationConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxFailures = 1
		} else {
			maxFailures = uint32(*override)
		}
	}

	return ModerationConfig{
		OpenAIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIURL:          getEnvOrDefault("OPENAI_MODERATION_URL", "https://api.openai.com/v1/moderations"),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODERATION_MODEL", "omni-moderation-latest"),
		Timeout:            timeout,
		BreakerMaxFailures: maxFailures,
		BreakerCooldown:    cooldown,
	}, nil
}

// CacheConfig 描述分析结果缓存。RedisURL 为空时关闭缓存。
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// Enabled 是否需要连接 Redis 缓存
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

func loadCacheConfig() (CacheConfig, error) {
	ttl, err := parseDurationEnv("CACHE_TTL", time.Hour)
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
		TTL:      ttl,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
