package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// ErrMalformedResponse 2xx 响应缺少预期字段
var ErrMalformedResponse = errors.New("malformed analysis response")

// APIError 非 2xx 响应或网络错误
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "analysis request failed: " + e.Message
	}
	return fmt.Sprintf("analysis request failed with status %d: %s", e.Status, e.Message)
}

// HTTPAnalyzer 将消息提交到分析接口
type HTTPAnalyzer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAnalyzer 创建带独立 Cookie 的客户端，
// 登录后的会话会沿用到后续的 Analyze 调用。
func NewHTTPAnalyzer(baseURL string) (*HTTPAnalyzer, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return NewHTTPAnalyzerWithClient(baseURL, &http.Client{Jar: jar}), nil
}

// NewHTTPAnalyzerWithClient 使用调用方提供的 http.Client
func NewHTTPAnalyzerWithClient(baseURL string, client *http.Client) *HTTPAnalyzer {
	return &HTTPAnalyzer{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Login 提交登录表单并保存会话 Cookie
func (a *HTTPAnalyzer) Login(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// 会话 Cookie 随重定向响应下发
	client := *a.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusSeeOther, http.StatusFound:
		return nil
	case http.StatusUnauthorized:
		return &APIError{Status: resp.StatusCode, Message: "Invalid credentials"}
	default:
		return &APIError{Status: resp.StatusCode, Message: FallbackMessage}
	}
}

type analyzeRequest struct {
	Message string `json:"message"`
}

// analyzeReply 字段使用指针，以便发现缺失字段
type analyzeReply struct {
	Message  *string  `json:"message"`
	Label    *string  `json:"label"`
	Severity *string  `json:"severity"`
	Score    *float64 `json:"score"`
}

type errorReply struct {
	Error string `json:"error"`
}

// Analyze 发送一条消息。错误为 *APIError 或包装了 ErrMalformedResponse
func (a *HTTPAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(analyzeRequest{Message: text})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Result{}, &APIError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, &APIError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &APIError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var reply errorReply
		if json.Unmarshal(raw, &reply) == nil && reply.Error != "" {
			return Result{}, &APIError{Status: resp.StatusCode, Message: reply.Error}
		}
		return Result{}, &APIError{Status: resp.StatusCode, Message: FallbackMessage}
	}

	return decodeResult(raw)
}

func decodeResult(raw []byte) (Result, error) {
	var reply analyzeReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if reply.Message == nil || reply.Label == nil || reply.Severity == nil || reply.Score == nil {
		return Result{}, fmt.Errorf("%w: missing fields", ErrMalformedResponse)
	}
	return Result{
		Message:  *reply.Message,
		Label:    *reply.Label,
		Severity: *reply.Severity,
		Score:    *reply.Score,
	}, nil
}

// AlertText 为失败的提交选择提示文本
func AlertText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}
