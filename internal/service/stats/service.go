package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
)

// ErrUserRequired 记录缺少用户 ID
var ErrUserRequired = errors.New("user id is required")

// recentToxicLimit 仪表盘“最近毒性消息”表的条数上限
const recentToxicLimit = 10

// Repository 消息统计存储接口
type Repository interface {
	SaveStat(ctx context.Context, stat stats.MsgStat) (stats.MsgStat, error)
	StatsForUser(ctx context.Context, userID int64) ([]stats.MsgStat, error)
	RecentToxic(ctx context.Context, userID int64, limit int) ([]stats.MsgStat, error)
}

// Service 记录分析结果并生成用户仪表盘
type Service struct {
	repo Repository
	now  func() time.Time

	mu          sync.Mutex
	subscribers map[int64]map[chan stats.Summary]struct{}
}

// NewService 基于存储创建统计服务
func NewService(repo Repository) *Service {
	return &Service{
		repo:        repo,
		now:         time.Now,
		subscribers: make(map[int64]map[chan stats.Summary]struct{}),
	}
}

// Record 保存一条分析记录，并将最新计数推送给订阅者
func (s *Service) Record(ctx context.Context, stat stats.MsgStat) (stats.MsgStat, error) {
	if stat.UserID == 0 {
		return stats.MsgStat{}, ErrUserRequired
	}
	if stat.Timestamp.IsZero() {
		stat.Timestamp = s.now().UTC()
	}

	saved, err := s.repo.SaveStat(ctx, stat)
	if err != nil {
		return stats.MsgStat{}, err
	}

	if s.hasSubscribers(stat.UserID) {
		summary, err := s.Summary(ctx, stat.UserID)
		if err == nil {
			s.publish(stat.UserID, summary)
		}
	}
	return saved, nil
}

// Summary 计算用户的安全/毒性计数
func (s *Service) Summary(ctx context.Context, userID int64) (stats.Summary, error) {
	all, err := s.repo.StatsForUser(ctx, userID)
	if err != nil {
		return stats.Summary{}, err
	}
	return summarize(all), nil
}

// Dashboard 生成仪表盘页面所需的全部图表数据
func (s *Service) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	all, err := s.repo.StatsForUser(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	recent, err := s.repo.RecentToxic(ctx, userID, recentToxicLimit)
	if err != nil {
		return Dashboard{}, err
	}

	summary := summarize(all)
	return Dashboard{
		Summary: summary,
		Pie: []Slice{
			{Name: "Safe", Value: summary.Safe},
			{Name: "Toxic", Value: summary.Toxic},
		},
		LabelCounts: labelCounts(all),
		Timeline:    timeline(all),
		RecentToxic: recent,
	}, nil
}

// Subscribe 订阅计数更新，调用方必须调用返回的 cancel
func (s *Service) Subscribe(userID int64) (<-chan stats.Summary, func()) {
	ch := make(chan stats.Summary, 4)

	s.mu.Lock()
	if s.subscribers[userID] == nil {
		s.subscribers[userID] = make(map[chan stats.Summary]struct{})
	}
	s.subscribers[userID][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[userID], ch)
			if len(s.subscribers[userID]) == 0 {
				delete(s.subscribers, userID)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) hasSubscribers(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[userID]) > 0
}

func (s *Service) publish(userID int64, summary stats.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[userID] {
		select {
		case ch <- summary:
		default:
			// 订阅者处理较慢，下次更新时再补上
		}
	}
}

func summarize(all []stats.MsgStat) stats.Summary {
	toxic := 0
	for _, stat := range all {
		if toxicity.IsToxic(stat.Severity) {
			toxic++
		}
	}
	return stats.Summary{Total: len(all), Toxic: toxic, Safe: len(all) - toxic}
}

func labelCounts(all []stats.MsgStat) []LabelCount {
	counts := make([]LabelCount, 0, 8)
	index := make(map[string]int)
	for _, stat := range all {
		if !toxicity.IsToxic(stat.Severity) {
			continue
		}
		if i, ok := index[stat.Label]; ok {
			counts[i].Count++
			continue
		}
		index[stat.Label] = len(counts)
		counts = append(counts, LabelCount{Label: stat.Label, Count: 1})
	}

	if len(counts) == 0 {
		return []LabelCount{{Label: "No toxic messages", Count: 1}}
	}
	return counts
}

func timeline(all []stats.MsgStat) Timeline {
	if len(all) == 0 {
		return Timeline{Times: []string{"No data"}, Scores: []float64{0}}
	}

	line := Timeline{
		Times:  make([]string, 0, len(all)),
		Scores: make([]float64, 0, len(all)),
	}
	for _, stat := range all {
		line.Times = append(line.Times, stat.Timestamp.UTC().Format("15:04:05"))
		line.Scores = append(line.Scores, stat.Score)
	}
	return line
}
