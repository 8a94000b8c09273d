package web

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
)

func TestIndexCarriesWidgetIDs(t *testing.T) {
	pages, err := LoadPages()
	if err != nil {
		t.Fatalf("LoadPages err: %v", err)
	}

	var buf bytes.Buffer
	if err := pages.Render(&buf, "index.html", PageData{Username: "alice"}); err != nil {
		t.Fatalf("Render err: %v", err)
	}

	html := buf.String()
	for _, id := range []string{"chat-box", "message-input", "send-btn", "label", "severity", "score", "score-bar", "total-msg", "toxic-msg"} {
		if !strings.Contains(html, `id="`+id+`"`) {
			t.Fatalf("index page is missing element %q", id)
		}
	}
}

func TestLoginRendersError(t *testing.T) {
	pages, err := LoadPages()
	if err != nil {
		t.Fatalf("LoadPages err: %v", err)
	}

	var buf bytes.Buffer
	if err := pages.Render(&buf, "login.html", PageData{Error: "Invalid credentials"}); err != nil {
		t.Fatalf("Render err: %v", err)
	}
	if !strings.Contains(buf.String(), "Invalid credentials") {
		t.Fatal("expected error message in login page")
	}
}

func TestStaticAssets(t *testing.T) {
	if _, err := fs.Stat(Static(), "js/main.js"); err != nil {
		t.Fatalf("main.js missing: %v", err)
	}
}
