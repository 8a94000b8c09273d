package stats

import (
	"context"
	"sort"
	"sync"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
)

// MemoryRepository 基于内存的统计存储，用于测试和本地运行
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[int64][]stats.MsgStat
}

// NewMemoryRepository 创建空的内存存储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		byUser: make(map[int64][]stats.MsgStat),
	}
}

func (r *MemoryRepository) SaveStat(_ context.Context, stat stats.MsgStat) (stats.MsgStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stat.ID = r.nextID
	r.nextID++
	stat.Timestamp = stat.Timestamp.UTC()
	r.byUser[stat.UserID] = append(r.byUser[stat.UserID], stat)
	return stat, nil
}

func (r *MemoryRepository) StatsForUser(_ context.Context, userID int64) ([]stats.MsgStat, error) {
	r.mu.RLock()
	copied := append([]stats.MsgStat(nil), r.byUser[userID]...)
	r.mu.RUnlock()

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Timestamp.Before(copied[j].Timestamp)
	})
	return copied, nil
}

func (r *MemoryRepository) RecentToxic(ctx context.Context, userID int64, limit int) ([]stats.MsgStat, error) {
	all, _ := r.StatsForUser(ctx, userID)

	out := make([]stats.MsgStat, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if toxicity.IsToxic(all[i].Severity) {
			out = append(out, all[i])
		}
	}
	return out, nil
}
