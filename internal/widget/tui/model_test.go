package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/safespeak/backend/internal/widget"
)

type cannedAnalyzer struct {
	mu    sync.Mutex
	texts []string
	reply widget.Result
	err   error
}

func (a *cannedAnalyzer) Analyze(_ context.Context, text string) (widget.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
	return a.reply, a.err
}

// settle waits for in-flight submissions and feeds their updates through Update.
func settle(m *Model) {
	m.controller.Wait()
	for {
		select {
		case msg := <-m.updates:
			m.Update(msg)
		default:
			return
		}
	}
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestEnterSubmitsAndRenders(t *testing.T) {
	analyzer := &cannedAnalyzer{reply: widget.Result{Message: "you are stupid", Label: "insult", Severity: "high", Score: 92}}
	m := New(analyzer)

	typeText(m, "you are stupid")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)

	if len(analyzer.texts) != 1 || analyzer.texts[0] != "you are stupid" {
		t.Fatalf("unexpected submissions: %v", analyzer.texts)
	}
	if m.input.Value() != "" {
		t.Fatalf("input should be cleared, got %q", m.input.Value())
	}
	if len(m.entries) != 1 || m.entries[0].Style != widget.StyleToxic {
		t.Fatalf("unexpected entries: %+v", m.entries)
	}
	if m.tally != (widget.Tally{Total: 1, Toxic: 1}) {
		t.Fatalf("unexpected tally: %+v", m.tally)
	}
	if m.panel.BarWidth != "92%" {
		t.Fatalf("unexpected bar width %q", m.panel.BarWidth)
	}

	view := m.View()
	for _, want := range []string{"you are stupid", "insult (high)", "Total messages: 1", "Toxic messages: 1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestBlankEnterDoesNothing(t *testing.T) {
	analyzer := &cannedAnalyzer{}
	m := New(analyzer)

	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)

	if len(analyzer.texts) != 0 {
		t.Fatalf("blank input must not be sent: %v", analyzer.texts)
	}
	if len(m.entries) != 0 {
		t.Fatal("log should be unchanged")
	}
}

func TestAlertShownAndDismissed(t *testing.T) {
	analyzer := &cannedAnalyzer{err: &widget.APIError{Status: 500, Message: "model unavailable"}}
	m := New(analyzer)

	typeText(m, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)

	if m.alert != "model unavailable" {
		t.Fatalf("expected alert, got %q", m.alert)
	}
	if !strings.Contains(m.View(), "model unavailable") {
		t.Fatal("alert should be rendered")
	}

	typeText(m, "x")
	if m.alert != "" {
		t.Fatal("any key should dismiss the alert")
	}
	if m.input.Value() != "" {
		t.Fatal("dismissing key should not reach the input")
	}
	if m.tally != (widget.Tally{}) {
		t.Fatalf("failed analysis must not count: %+v", m.tally)
	}
}

func TestTransportErrorUsesFallback(t *testing.T) {
	m := New(&cannedAnalyzer{err: errors.New("dial tcp: connection refused")})

	typeText(m, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)

	if m.alert != widget.FallbackMessage {
		t.Fatalf("expected fallback alert, got %q", m.alert)
	}
}

func TestScoreBar(t *testing.T) {
	if got := strings.Count(scoreBar(50), "█"); got != barCells/2 {
		t.Fatalf("expected half bar, got %d cells", got)
	}
	if got := strings.Count(scoreBar(100), "░"); got != 0 {
		t.Fatalf("full bar should have no empty cells, got %d", got)
	}
}

type blockingAnalyzer struct {
	started chan struct{}
}

func (a *blockingAnalyzer) Analyze(ctx context.Context, _ string) (widget.Result, error) {
	a.started <- struct{}{}
	<-ctx.Done()
	return widget.Result{}, ctx.Err()
}

func TestShutdownCancelsPendingSubmissions(t *testing.T) {
	analyzer := &blockingAnalyzer{started: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := New(analyzer, widget.WithContext(ctx))

	typeText(m, "anyone there?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case <-analyzer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never reached the analyzer")
	}

	done := make(chan struct{})
	go func() {
		m.shutdown(cancel)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown blocked on a hung submission")
	}
}
