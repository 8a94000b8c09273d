package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
	"github.com/zhouzirui/safespeak/backend/internal/cache"
	"github.com/zhouzirui/safespeak/backend/internal/metrics"
)

// ErrEmptyText 去除空白后消息为空
var ErrEmptyText = errors.New("message text is empty")

// Classifier 对单条消息打分
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (toxicity.Result, error)
}

// HeuristicClassifier 关键词启发式分类器
type HeuristicClassifier struct{}

func (HeuristicClassifier) Name() string { return "heuristic" }

func (HeuristicClassifier) Classify(_ context.Context, text string) (toxicity.Result, error) {
	return toxicity.Analyze(text), nil
}

// Config 主分类器的超时与熔断参数
type Config struct {
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration
}

// Outcome 单条消息的分析结果
type Outcome struct {
	toxicity.Result
	Severity toxicity.Severity
	Source   string
	Cached   bool
}

// Service 依次使用缓存、主分类器和启发式兜底
type Service struct {
	primary  Classifier
	fallback Classifier
	cache    cache.AnalysisCache
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewService 创建分析链。primary 为 nil 时只运行启发式规则；
// analysisCache 为 nil 时不缓存。
func NewService(primary Classifier, analysisCache cache.AnalysisCache, cfg Config, logger zerolog.Logger) *Service {
	if analysisCache == nil {
		analysisCache = cache.Noop{}
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}

	s := &Service{
		primary:  primary,
		fallback: HeuristicClassifier{},
		cache:    analysisCache,
		timeout:  cfg.Timeout,
		logger:   logger.With().Str("component", "moderation").Logger(),
	}

	if primary != nil {
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        primary.Name(),
			MaxRequests: 1,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				s.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("classifier breaker state changed")
			},
		})
	}
	return s
}

// PrimaryName 返回优先使用的分类器名称
func (s *Service) PrimaryName() string {
	if s.primary == nil {
		return s.fallback.Name()
	}
	return s.primary.Name()
}

// Analyze 对文本分类。仅在输入为空或链上所有分类器
// 都失败时返回错误。
func (s *Service) Analyze(ctx context.Context, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, ErrEmptyText
	}

	traceID := uuid.NewString()
	log := s.logger.With().Str("trace_id", traceID).Logger()

	if cached, ok, err := s.cache.Get(ctx, text); err != nil {
		log.Warn().Err(err).Msg("analysis cache lookup failed")
	} else if ok {
		metrics.ClassifierRequests.WithLabelValues("cache", "cache_hit").Inc()
		return s.finish(cached, "cache", true), nil
	}

	if s.primary != nil {
		result, err := s.classifyPrimary(ctx, text)
		if err == nil {
			if err := s.cache.Set(ctx, text, result); err != nil {
				log.Warn().Err(err).Msg("analysis cache store failed")
			}
			return s.finish(result, s.primary.Name(), false), nil
		}
		log.Warn().Err(err).Str("classifier", s.primary.Name()).Msg("primary classifier failed, using fallback")
	}

	result, err := s.run(ctx, s.fallback, text)
	if err != nil {
		return Outcome{}, fmt.Errorf("fallback classifier: %w", err)
	}
	return s.finish(result, s.fallback.Name(), false), nil
}

func (s *Service) classifyPrimary(ctx context.Context, text string) (toxicity.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.run(ctx, s.primary, text)
	})
	if err != nil {
		return toxicity.Result{}, fmt.Errorf("breaker (%s): %w", s.breaker.Name(), err)
	}
	return out.(toxicity.Result), nil
}

func (s *Service) run(ctx context.Context, c Classifier, text string) (toxicity.Result, error) {
	start := time.Now()
	result, err := c.Classify(ctx, text)
	metrics.ClassifierLatency.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClassifierRequests.WithLabelValues(c.Name(), "error").Inc()
		return toxicity.Result{}, err
	}
	metrics.ClassifierRequests.WithLabelValues(c.Name(), "ok").Inc()
	return result, nil
}

func (s *Service) finish(result toxicity.Result, source string, cached bool) Outcome {
	severity := toxicity.SeverityFor(result.Score)
	metrics.AnalysesTotal.WithLabelValues(string(severity)).Inc()
	return Outcome{Result: result, Severity: severity, Source: source, Cached: cached}
}
