package stats

// Summary 用户的安全/毒性消息计数
type Summary struct {
	Total int `json:"total"`
	Toxic int `json:"toxic"`
	Safe  int `json:"safe"`
}
