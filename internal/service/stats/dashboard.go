package stats

import "github.com/zhouzirui/safespeak/backend/internal/model/stats"

// Dashboard 将用户历史汇总为图表数据
type Dashboard struct {
	stats.Summary
	Pie         []Slice         `json:"pie"`
	LabelCounts []LabelCount    `json:"labelCounts"`
	Timeline    Timeline        `json:"timeline"`
	RecentToxic []stats.MsgStat `json:"recentToxic"`
}

// Slice 饼图中的一块
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// LabelCount 各类别的毒性消息数，按首次出现顺序排列
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Timeline 按时间排序的分数历史
type Timeline struct {
	Times  []string  `json:"times"`
	Scores []float64 `json:"scores"`
}
