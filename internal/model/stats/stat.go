package stats

import "time"

// MsgStat 一条已分析消息的记录，归属于用户的仪表盘
type MsgStat struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Msg       string    `json:"msg"`
	Label     string    `json:"label"`
	Severity  string    `json:"severity"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
