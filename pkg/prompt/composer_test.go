package prompt

import (
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		structured ToolMode
		wantMode   ToolMode
		wantText   string
	}{
		{
			name:     "plain text",
			raw:      "hello there",
			wantMode: ModeNone,
			wantText: "hello there",
		},
		{
			name:     "legacy web search marker",
			raw:      "[WEB_SEARCH_MODE] latest go release",
			wantMode: ModeWebSearch,
			wantText: "latest go release",
		},
		{
			name:     "legacy deep analysis marker",
			raw:      "[DEEP_LEARNING_MODE] compare these",
			wantMode: ModeDeepAnalysis,
			wantText: "compare these",
		},
		{
			name:       "structured mode wins over marker",
			raw:        "[WEB_SEARCH_MODE] explain this",
			structured: ModeStudy,
			wantMode:   ModeStudy,
			wantText:   "explain this",
		},
		{
			name:       "structured none defers to marker",
			raw:        "[STUDY_MODE] teach me",
			structured: ModeNone,
			wantMode:   ModeStudy,
			wantText:   "teach me",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, text := ParseMode(tt.raw, tt.structured)
			if mode != tt.wantMode {
				t.Errorf("mode = %v, want %v", mode, tt.wantMode)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestStripMarkersRemovesAll(t *testing.T) {
	got := StripMarkers("[WEB_SEARCH_MODE][STUDY_MODE] question [DEEP_LEARNING_MODE]")
	if got != "question" {
		t.Errorf("StripMarkers = %q, want %q", got, "question")
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		mode       ToolMode
		wantPrefix string
	}{
		{name: "none is pass-through", raw: "hello", mode: ModeNone, wantPrefix: "hello"},
		{name: "web search template", raw: "go 1.24", mode: ModeWebSearch, wantPrefix: "Search the web"},
		{name: "deep analysis template", raw: "this code", mode: ModeDeepAnalysis, wantPrefix: "Provide advanced AI analysis"},
		{name: "study template", raw: "recursion", mode: ModeStudy, wantPrefix: "Explain in educational detail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(tt.raw, tt.mode)
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("Compose = %q, want prefix %q", got, tt.wantPrefix)
			}
			if tt.mode != ModeNone && !strings.HasSuffix(got, tt.raw) {
				t.Errorf("Compose = %q, want suffix %q", got, tt.raw)
			}
		})
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	a := Compose("[WEB_SEARCH_MODE] same input", ModeWebSearch)
	b := Compose("[WEB_SEARCH_MODE] same input", ModeWebSearch)
	if a != b {
		t.Errorf("Compose not deterministic: %q vs %q", a, b)
	}
}

func TestComposeWithAttachments(t *testing.T) {
	got := ComposeWithAttachments("", ModeNone, true)
	if got != AttachmentFallback {
		t.Errorf("empty text with attachments = %q, want %q", got, AttachmentFallback)
	}

	got = ComposeWithAttachments("", ModeStudy, true)
	if !strings.Contains(got, AttachmentFallback) {
		t.Errorf("mode template should wrap the fallback, got %q", got)
	}

	got = ComposeWithAttachments("look at this", ModeNone, true)
	if got != "look at this" {
		t.Errorf("text present, fallback must not apply: %q", got)
	}
}

func TestToolModeValid(t *testing.T) {
	for _, m := range []ToolMode{ModeNone, ModeWebSearch, ModeDeepAnalysis, ModeStudy} {
		if !m.Valid() {
			t.Errorf("%v should be valid", m)
		}
	}
	if ToolMode("turbo").Valid() {
		t.Error("unknown mode should be invalid")
	}
}
