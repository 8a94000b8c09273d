package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/safespeak/backend/internal/widget"
)

// bridge 将 Model 适配为 widget.View。读取输入发生在 Update 中，
// 其余调用来自提交协程，通过队列传递。
type bridge struct {
	m *Model
}

func (b *bridge) InputValue() string { return b.m.input.Value() }

func (b *bridge) ClearInput() { b.m.input.Reset() }

func (b *bridge) AppendEntry(e widget.Entry) { b.push(entryMsg(e)) }

func (b *bridge) ScrollToLatest() { b.push(scrollMsg{}) }

func (b *bridge) SetPanel(p widget.Panel) { b.push(panelMsg(p)) }

func (b *bridge) SetTally(t widget.Tally) { b.push(tallyMsg(t)) }

func (b *bridge) Alert(message string) { b.push(alertMsg(message)) }

func (b *bridge) push(msg tea.Msg) {
	b.m.updates <- msg
}
