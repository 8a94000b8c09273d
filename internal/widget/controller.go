// Package widget 聊天组件控制器：读取输入，提交每条消息进行分析，
// 并展示结果、消息记录和累计计数。
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Analyzer 提交一条消息进行分析
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

// View 控制器绘制的界面。除 InputValue 和 ClearInput 外，
// 其他方法都在提交协程中调用。
type View interface {
	InputValue() string
	ClearInput()
	AppendEntry(Entry)
	ScrollToLatest()
	SetPanel(Panel)
	SetTally(Tally)
	Alert(message string)
}

// Controller 持有计数和进行中的提交
type Controller struct {
	analyzer Analyzer
	view     View
	ctx      context.Context
	logger   zerolog.Logger

	// mu 保证计数更新与对应的界面写入一起串行执行
	mu    sync.Mutex
	tally Tally

	wg sync.WaitGroup
}

// Option 控制器配置项
type Option func(*Controller)

// WithContext 所有提交都受 ctx 约束
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// WithLogger 设置提交失败时使用的日志
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New 创建控制器，view 由调用方持有
func New(analyzer Analyzer, view View, opts ...Option) *Controller {
	c := &Controller{
		analyzer: analyzer,
		view:     view,
		ctx:      context.Background(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RenderMessage 追加一条记录并滚动到该条
func (c *Controller) RenderMessage(text, label, severity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderLocked(text, label, severity)
}

func (c *Controller) renderLocked(text, label, severity string) {
	c.view.AppendEntry(Entry{Text: text, Label: label, Severity: severity, Style: StyleFor(severity)})
	c.view.ScrollToLatest()
}

// Submit 在后台提交文本进行分析。空白输入直接忽略并返回 false，
// 重叠的提交之间不保证顺序。
func (c *Controller) Submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := c.analyzer.Analyze(c.ctx, text)
		c.apply(text, result, err)
	}()
	return true
}

func (c *Controller) apply(text string, result Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn().Err(err).Msg("discarding malformed analysis")
		} else {
			c.logger.Debug().Err(err).Str("text", text).Msg("analysis failed")
		}
		c.view.Alert(AlertText(err))
		return
	}

	c.tally.Total++
	if StyleFor(result.Severity) == StyleToxic {
		c.tally.Toxic++
	}

	c.renderLocked(result.Message, result.Label, result.Severity)
	c.view.SetPanel(NewPanel(result))
	c.view.SetTally(c.tally)
}

// Click 读取输入并提交，提交后清空输入框
func (c *Controller) Click() bool {
	text := strings.TrimSpace(c.view.InputValue())
	if text == "" {
		return false
	}
	c.view.ClearInput()
	return c.Submit(text)
}

// KeyPress 回车与点击发送按钮等效
func (c *Controller) KeyPress(key string) bool {
	if !strings.EqualFold(key, "enter") {
		return false
	}
	return c.Click()
}

// Wait 阻塞直到所有提交都已处理
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Tally 返回计数快照
func (c *Controller) Tally() Tally {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tally
}
