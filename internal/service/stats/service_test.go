package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
	statsservice "github.com/zhouzirui/safespeak/backend/internal/service/stats"
)

func seed(t *testing.T, svc *statsservice.Service, userID int64, entries ...stats.MsgStat) {
	t.Helper()
	base := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	for i, entry := range entries {
		entry.UserID = userID
		entry.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if _, err := svc.Record(context.Background(), entry); err != nil {
			t.Fatalf("Record err: %v", err)
		}
	}
}

func TestDashboardEmpty(t *testing.T) {
	svc := statsservice.NewService(statsservice.NewMemoryRepository())

	dash, err := svc.Dashboard(context.Background(), 7)
	if err != nil {
		t.Fatalf("Dashboard err: %v", err)
	}

	if dash.Total != 0 || dash.Toxic != 0 || dash.Safe != 0 {
		t.Fatalf("expected zero summary, got %+v", dash.Summary)
	}
	if len(dash.LabelCounts) != 1 || dash.LabelCounts[0].Label != "No toxic messages" || dash.LabelCounts[0].Count != 1 {
		t.Fatalf("unexpected placeholder label counts: %+v", dash.LabelCounts)
	}
	if len(dash.Timeline.Times) != 1 || dash.Timeline.Times[0] != "No data" || dash.Timeline.Scores[0] != 0 {
		t.Fatalf("unexpected placeholder timeline: %+v", dash.Timeline)
	}
	if len(dash.RecentToxic) != 0 {
		t.Fatalf("expected no recent toxic entries")
	}
}

func TestDashboardAggregates(t *testing.T) {
	svc := statsservice.NewService(statsservice.NewMemoryRepository())
	seed(t, svc, 1,
		stats.MsgStat{Msg: "hello", Label: "neutral", Severity: "low", Score: 0.01},
		stats.MsgStat{Msg: "you are stupid", Label: "insult", Severity: "medium", Score: 0.62},
		stats.MsgStat{Msg: "i will hurt you", Label: "threat", Severity: "high", Score: 0.91},
		stats.MsgStat{Msg: "idiot", Label: "insult", Severity: "high", Score: 0.85},
	)
	seed(t, svc, 2, stats.MsgStat{Msg: "other user", Label: "toxic", Severity: "high", Score: 0.99})

	dash, err := svc.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("Dashboard err: %v", err)
	}

	if dash.Total != 4 || dash.Toxic != 3 || dash.Safe != 1 {
		t.Fatalf("unexpected summary: %+v", dash.Summary)
	}
	if dash.Pie[0].Name != "Safe" || dash.Pie[0].Value != 1 || dash.Pie[1].Value != 3 {
		t.Fatalf("unexpected pie: %+v", dash.Pie)
	}

	wantCounts := []statsservice.LabelCount{{Label: "insult", Count: 2}, {Label: "threat", Count: 1}}
	if len(dash.LabelCounts) != len(wantCounts) {
		t.Fatalf("unexpected label counts: %+v", dash.LabelCounts)
	}
	for i, want := range wantCounts {
		if dash.LabelCounts[i] != want {
			t.Fatalf("label count %d: got %+v want %+v", i, dash.LabelCounts[i], want)
		}
	}

	if dash.Timeline.Times[0] != "09:30:00" || dash.Timeline.Times[3] != "09:33:00" {
		t.Fatalf("unexpected timeline labels: %v", dash.Timeline.Times)
	}
	if dash.Timeline.Scores[2] != 0.91 {
		t.Fatalf("unexpected timeline scores: %v", dash.Timeline.Scores)
	}

	if len(dash.RecentToxic) != 3 || dash.RecentToxic[0].Msg != "idiot" {
		t.Fatalf("expected newest toxic first, got %+v", dash.RecentToxic)
	}
}

func TestRecordRequiresUser(t *testing.T) {
	svc := statsservice.NewService(statsservice.NewMemoryRepository())
	if _, err := svc.Record(context.Background(), stats.MsgStat{Msg: "x"}); err == nil {
		t.Fatal("expected error for missing user")
	}
}

func TestSubscribeReceivesTally(t *testing.T) {
	svc := statsservice.NewService(statsservice.NewMemoryRepository())
	updates, cancel := svc.Subscribe(3)
	defer cancel()

	seed(t, svc, 3, stats.MsgStat{Msg: "idiot", Label: "insult", Severity: "high", Score: 0.9})

	select {
	case summary := <-updates:
		if summary.Total != 1 || summary.Toxic != 1 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a tally update")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	svc := statsservice.NewService(statsservice.NewMemoryRepository())
	updates, cancel := svc.Subscribe(3)
	cancel()
	cancel()

	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel after cancel")
	}
}
