package toxicity

// Severity 主分数对应的严重程度，用于展示和计数
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	highThreshold   = 0.8
	mediumThreshold = 0.5
)

// SeverityFor 将 0~1 的分数映射为严重程度，两个阈值均为开区间
func SeverityFor(score float64) Severity {
	switch {
	case score > highThreshold:
		return SeverityHigh
	case score > mediumThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// IsToxic 判断严重程度是否计入毒性消息数。
// 除 "medium" 与 "high" 外一律视为安全。
func IsToxic(severity string) bool {
	return severity == string(SeverityMedium) || severity == string(SeverityHigh)
}
