package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/zhouzirui/safespeak/backend/internal/widget"
)

// printView 把每条结果输出为一行文本
type printView struct {
	mu     sync.Mutex
	out    io.Writer
	alerts int
}

func newPrintView(out io.Writer) *printView {
	return &printView{out: out}
}

func (v *printView) InputValue() string { return "" }

func (v *printView) ClearInput() {}

func (v *printView) AppendEntry(e widget.Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "[%s] %s: %s (%s)\n", e.Style, e.Text, e.Label, e.Severity)
}

func (v *printView) ScrollToLatest() {}

func (v *printView) SetPanel(p widget.Panel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "  score %s\n", p.Score)
}

func (v *printView) SetTally(widget.Tally) {}

func (v *printView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts++
	fmt.Fprintf(v.out, "error: %s\n", message)
}

func (v *printView) failures() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alerts
}
