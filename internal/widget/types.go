package widget

import (
	"strconv"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
)

// FallbackMessage 失败且没有服务端错误信息时显示的文本
const FallbackMessage = "Something went wrong!"

// Style 记录的展示样式
type Style string

const (
	StyleSafe  Style = "safe"
	StyleToxic Style = "toxic"
)

// StyleFor 将严重程度映射为样式
func StyleFor(severity string) Style {
	if toxicity.IsToxic(severity) {
		return StyleToxic
	}
	return StyleSafe
}

// Result 服务端返回的分析结果
type Result struct {
	Message  string
	Label    string
	Severity string
	// Score 取值范围 0~100
	Score float64
}

// Entry 消息记录中的一条
type Entry struct {
	Text     string
	Label    string
	Severity string
	Style    Style
}

// Panel 侧边栏展示最近一次分析的字段
type Panel struct {
	Label    string
	Severity string
	Score    string
	BarWidth string
	// BarPercent 限制在 0~100 的 BarWidth，供绘制进度条使用
	BarPercent float64
}

// NewPanel 将结果格式化用于展示
func NewPanel(r Result) Panel {
	score := strconv.FormatFloat(r.Score, 'f', -1, 64)
	pct := r.Score
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return Panel{
		Label:      r.Label,
		Severity:   r.Severity,
		Score:      score,
		BarWidth:   strconv.FormatFloat(pct, 'f', -1, 64) + "%",
		BarPercent: pct,
	}
}

// Tally 成功分析的计数，Toxic 不会超过 Total
type Tally struct {
	Total int
	Toxic int
}
