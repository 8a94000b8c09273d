// Package tui 使用 bubbletea 在终端中渲染聊天组件
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/safespeak/backend/internal/widget"
)

const (
	panelWidth    = 34
	defaultWidth  = 80
	defaultHeight = 20
)

type (
	entryMsg  widget.Entry
	scrollMsg struct{}
	panelMsg  widget.Panel
	tallyMsg  widget.Tally
	alertMsg  string
)

// Model bubbletea 模型。以指针方式使用，
// 保证控制器的 bridge 读到的是实时输入框。
type Model struct {
	input   textinput.Model
	log     viewport.Model
	entries []widget.Entry
	panel   widget.Panel
	tally   widget.Tally
	alert   string
	width   int
	height  int

	controller *widget.Controller
	updates    chan tea.Msg
}

// New 创建模型及其控制器
func New(analyzer widget.Analyzer, opts ...widget.Option) *Model {
	in := textinput.New()
	in.Placeholder = "Type a message..."
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Focus()

	m := &Model{
		input:   in,
		log:     viewport.New(defaultWidth-panelWidth, defaultHeight),
		panel:   widget.Panel{Label: "-", Severity: "-", Score: "0", BarWidth: "0%"},
		width:   defaultWidth,
		height:  defaultHeight,
		updates: make(chan tea.Msg, 64),
	}
	m.controller = widget.New(analyzer, &bridge{m: m}, opts...)
	return m
}

// Controller 返回底层的组件控制器
func (m *Model) Controller() *widget.Controller {
	return m.controller
}

// Run 启动全屏程序，阻塞直到用户退出。
// 退出时仍在进行的提交会被取消。
func Run(ctx context.Context, analyzer widget.Analyzer, opts ...widget.Option) error {
	ctx, cancel := context.WithCancel(ctx)
	m := New(analyzer, append(opts, widget.WithContext(ctx))...)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	m.shutdown(cancel)
	return err
}

// shutdown 取消未完成的提交并等待其协程结束
func (m *Model) shutdown(cancel context.CancelFunc) {
	cancel()

	// 退出后不再读取 updates，排空队列避免迟到的结果阻塞
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-m.updates:
			case <-done:
				return
			}
		}
	}()
	m.controller.Wait()
	close(done)
}

// listen 等待提交协程推送的下一条更新
func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listen(m.updates))
}

// Update 处理按键、窗口尺寸以及提交协程推送的更新
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.log.Width = max(msg.Width-panelWidth-2, 10)
		m.log.Height = max(msg.Height-4, 3)
		m.input.Width = max(msg.Width-panelWidth-6, 10)
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.alert != "" {
			// 任意键关闭提示框
			m.alert = ""
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.controller.KeyPress("enter")
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case entryMsg:
		m.entries = append(m.entries, widget.Entry(msg))
		m.refreshLog()
		return m, listen(m.updates)
	case scrollMsg:
		m.log.GotoBottom()
		return m, listen(m.updates)
	case panelMsg:
		m.panel = widget.Panel(msg)
		return m, listen(m.updates)
	case tallyMsg:
		m.tally = widget.Tally(msg)
		return m, listen(m.updates)
	case alertMsg:
		m.alert = string(msg)
		return m, listen(m.updates)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) refreshLog() {
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		style := safeStyle
		if e.Style == widget.StyleToxic {
			style = toxicStyle
		}
		b.WriteString(style.Render("You: " + e.Text))
		b.WriteString("\n")
		b.WriteString(metaStyle.Render(fmt.Sprintf("  %s (%s)", e.Label, e.Severity)))
	}
	m.log.SetContent(b.String())
}

func (m *Model) renderPanel() string {
	lines := []string{
		titleStyle.Render("Analysis"),
		"Label:    " + m.panel.Label,
		"Severity: " + m.panel.Severity,
		"Score:    " + m.panel.Score,
		scoreBar(m.panel.BarPercent) + " " + m.panel.BarWidth,
		"",
		fmt.Sprintf("Total messages: %d", m.tally.Total),
		fmt.Sprintf("Toxic messages: %d", m.tally.Toxic),
	}
	return panelStyle.Width(panelWidth - 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) View() string {
	chat := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("SafeSpeak"),
		m.log.View(),
		m.input.View(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, chat, "  ", m.renderPanel())

	if m.alert != "" {
		box := alertStyle.Render(m.alert + "\n\n" + metaStyle.Render("press any key"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return body + "\n" + metaStyle.Render("enter: send · pgup/pgdn: scroll · esc: quit")
}
