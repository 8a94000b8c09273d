package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
)

// SaveStat 写入一条分析记录并返回带 ID 的副本
func (s *Store) SaveStat(ctx context.Context, stat stats.MsgStat) (stats.MsgStat, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO msg_stats (user_id, msg, label, severity, score, timestamp_utc)
		VALUES (?, ?, ?, ?, ?, ?)`,
		stat.UserID, stat.Msg, stat.Label, stat.Severity, stat.Score, formatTime(stat.Timestamp),
	)
	if err != nil {
		return stats.MsgStat{}, fmt.Errorf("insert msg stat: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return stats.MsgStat{}, fmt.Errorf("read msg stat id: %w", err)
	}
	stat.ID = id
	stat.Timestamp = stat.Timestamp.UTC()
	return stat, nil
}

// StatsForUser 返回用户的全部统计记录，按时间升序
func (s *Store) StatsForUser(ctx context.Context, userID int64) ([]stats.MsgStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, msg, label, severity, score, timestamp_utc
		FROM msg_stats WHERE user_id = ?
		ORDER BY timestamp_utc ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query msg stats: %w", err)
	}
	return scanStats(rows)
}

// RecentToxic 返回用户最新的 medium/high 记录
func (s *Store) RecentToxic(ctx context.Context, userID int64, limit int) ([]stats.MsgStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, msg, label, severity, score, timestamp_utc
		FROM msg_stats
		WHERE user_id = ? AND severity IN ('medium', 'high')
		ORDER BY timestamp_utc DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent toxic stats: %w", err)
	}
	return scanStats(rows)
}

func scanStats(rows *sql.Rows) ([]stats.MsgStat, error) {
	defer rows.Close()

	out := make([]stats.MsgStat, 0, 16)
	for rows.Next() {
		var (
			stat stats.MsgStat
			ts   string
		)
		if err := rows.Scan(&stat.ID, &stat.UserID, &stat.Msg, &stat.Label, &stat.Severity, &stat.Score, &ts); err != nil {
			return nil, fmt.Errorf("scan msg stat: %w", err)
		}
		parsed, err := parseTime(ts)
		if err != nil {
			return nil, err
		}
		stat.Timestamp = parsed
		out = append(out, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate msg stats: %w", err)
	}
	return out, nil
}
