package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
	"github.com/zhouzirui/safespeak/backend/internal/config"
)

// ErrEmptyOutput 模型返回空内容
var ErrEmptyOutput = errors.New("classifier returned empty output")

// Classifier 通过 eino 链调用对话模型对消息打分
type Classifier struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewClassifier 按配置创建基于 Ark 的分类器
func NewClassifier(ctx context.Context, cfg config.AIConfig) (*Classifier, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewClassifierWithModel(ctx, chatModel)
}

// NewClassifierWithModel 在已有模型上编译打分链
func NewClassifierWithModel(ctx context.Context, chatModel model.ChatModel) (*Classifier, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(BuildSystemPrompt()),
		schema.UserMessage(userPromptTemplate),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile classifier chain: %w", err)
	}

	return &Classifier{chain: runnable}, nil
}

// Name 分类器名称，用于日志和指标
func (c *Classifier) Name() string {
	return "llm"
}

// Classify 请求模型给出各类别分数
func (c *Classifier) Classify(ctx context.Context, text string) (toxicity.Result, error) {
	msg, err := c.chain.Invoke(ctx, map[string]any{"message": strings.TrimSpace(text)})
	if err != nil {
		return toxicity.Result{}, fmt.Errorf("failed to run classifier chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return toxicity.Result{}, ErrEmptyOutput
	}

	scores, err := parseClassifierOutput(msg.Content)
	if err != nil {
		return toxicity.Result{}, fmt.Errorf("failed to parse classifier output: %w", err)
	}
	return toxicity.FromScores(scores), nil
}

type classifierPayload struct {
	Scores map[string]float64 `json:"scores"`
}

// parseClassifierOutput 解析大模型返回的 JSON，容忍前后多余文本。
func parseClassifierOutput(content string) (map[toxicity.Label]float64, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	if len(payload.Scores) == 0 {
		return nil, fmt.Errorf("missing scores")
	}

	scores := make(map[toxicity.Label]float64, len(payload.Scores))
	for raw, score := range payload.Scores {
		label := toxicity.LabelFromID(raw)
		if score > scores[label] {
			scores[label] = score
		}
	}
	return scores, nil
}
