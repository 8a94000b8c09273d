package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
)

const defaultModerationURL = "https://api.openai.com/v1/moderations"

// ErrModerationCall moderation 接口调用失败
var ErrModerationCall = errors.New("moderation api call failed")

// categoryLabels 将 OpenAI moderation 类别归并到本系统的类别
var categoryLabels = map[string][]toxicity.Label{
	"harassment":             {toxicity.Insult},
	"harassment/threatening": {toxicity.Threat, toxicity.SevereToxic},
	"hate":                   {toxicity.IdentityHate},
	"hate/threatening":       {toxicity.IdentityHate, toxicity.SevereToxic},
	"sexual":                 {toxicity.Obscene},
	"sexual/minors":          {toxicity.Obscene, toxicity.SevereToxic},
	"violence":               {toxicity.Threat},
	"violence/graphic":       {toxicity.Threat},
	"self-harm":              {toxicity.SevereToxic},
	"self-harm/intent":       {toxicity.SevereToxic},
	"self-harm/instructions": {toxicity.SevereToxic},
	"illicit":                {toxicity.Toxic},
	"illicit/violent":        {toxicity.Toxic, toxicity.Threat},
}

type openAIModerationRequest struct {
	Input string `json:"input"`
	Model string `json:"model,omitempty"`
}

type openAIModerationResponse struct {
	ID      string                   `json:"id"`
	Model   string                   `json:"model"`
	Results []openAIModerationResult `json:"results"`
}

type openAIModerationResult struct {
	Flagged        bool               `json:"flagged"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// OpenAIClient 通过 OpenAI moderation 接口对文本分类
type OpenAIClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// NewOpenAIClient 创建 OpenAI moderation 客户端，endpoint 为空时使用官方地址
func NewOpenAIClient(apiKey, endpoint, model string, timeout time.Duration) *OpenAIClient {
	if endpoint == "" {
		endpoint = defaultModerationURL
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Classify(ctx context.Context, text string) (toxicity.Result, error) {
	if strings.TrimSpace(text) == "" {
		return toxicity.Result{}, fmt.Errorf("input cannot be empty")
	}

	reqBody, err := json.Marshal(openAIModerationRequest{Input: text, Model: c.model})
	if err != nil {
		return toxicity.Result{}, fmt.Errorf("failed to marshal moderation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return toxicity.Result{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return toxicity.Result{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return toxicity.Result{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return toxicity.Result{}, fmt.Errorf("%w: status %d: %s", ErrModerationCall, resp.StatusCode, string(body))
	}

	var parsed openAIModerationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return toxicity.Result{}, fmt.Errorf("failed to unmarshal moderation response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return toxicity.Result{}, fmt.Errorf("%w: no moderation results returned", ErrModerationCall)
	}

	return toxicity.FromScores(foldCategories(parsed.Results[0].CategoryScores)), nil
}

// foldCategories 每个类别取最高分，Toxic 跟随整体最高分
func foldCategories(categoryScores map[string]float64) map[toxicity.Label]float64 {
	scores := make(map[toxicity.Label]float64, len(toxicity.Labels))
	overall := 0.0
	for category, score := range categoryScores {
		if score > overall {
			overall = score
		}
		for _, label := range categoryLabels[category] {
			if score > scores[label] {
				scores[label] = score
			}
		}
	}
	// 通用类别略低于具体类别，平分时具体类别优先
	if general := overall * 0.9; general > scores[toxicity.Toxic] {
		scores[toxicity.Toxic] = general
	}
	return scores
}
