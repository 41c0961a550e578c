package prompt

import "strings"

// ToolMode is a request-shaping directive applied to one outgoing message.
// Exactly one mode is active per send; it is consumed into the prompt and
// cleared afterwards.
type ToolMode string

const (
	ModeNone         ToolMode = "none"
	ModeWebSearch    ToolMode = "web-search"
	ModeDeepAnalysis ToolMode = "deep-analysis"
	ModeStudy        ToolMode = "study-mode"
)

// Legacy sentinel tokens the web client used to embed inside the message
// text. The structured tool_mode field replaces them at the API boundary,
// but they are still recognized and always stripped before composition so
// they are never sent verbatim to the provider.
const (
	markerWebSearch    = "[WEB_SEARCH_MODE]"
	markerDeepAnalysis = "[DEEP_LEARNING_MODE]"
	markerStudy        = "[STUDY_MODE]"
)

// AttachmentFallback is substituted when the user sends attachments with
// no accompanying text.
const AttachmentFallback = "Please analyze the attached files."

// ParseMode resolves the effective tool mode for a raw message. A legacy
// marker embedded in the text wins only when no structured mode is given;
// the returned text always has all markers removed.
func ParseMode(raw string, structured ToolMode) (ToolMode, string) {
	detected := ModeNone
	switch {
	case strings.Contains(raw, markerWebSearch):
		detected = ModeWebSearch
	case strings.Contains(raw, markerDeepAnalysis):
		detected = ModeDeepAnalysis
	case strings.Contains(raw, markerStudy):
		detected = ModeStudy
	}

	clean := StripMarkers(raw)
	if structured != "" && structured != ModeNone {
		return structured, clean
	}
	return detected, clean
}

// StripMarkers removes every legacy mode token from the text.
func StripMarkers(raw string) string {
	s := raw
	for _, m := range []string{markerWebSearch, markerDeepAnalysis, markerStudy} {
		s = strings.ReplaceAll(s, m, "")
	}
	return strings.TrimSpace(s)
}

// Compose produces the final prompt text for the provider. It is a pure
// function: same (raw, mode) in, same text out.
func Compose(raw string, mode ToolMode) string {
	text := StripMarkers(raw)

	switch mode {
	case ModeWebSearch:
		return "Search the web and provide current, real-time information about: " + text
	case ModeDeepAnalysis:
		return "Provide advanced AI analysis, deep insights, and comprehensive understanding of: " + text
	case ModeStudy:
		return "Explain in educational detail, with examples, step-by-step breakdown, and learning tips for: " + text
	default:
		return text
	}
}

// ComposeWithAttachments is Compose plus the empty-text fallback: when the
// message has no text but carries attachments, a fixed instruction is
// substituted before the mode template is applied.
func ComposeWithAttachments(raw string, mode ToolMode, hasAttachments bool) string {
	text := StripMarkers(raw)
	if text == "" && hasAttachments {
		text = AttachmentFallback
	}
	return Compose(text, mode)
}

// Valid reports whether the mode is one of the known tool modes.
func (m ToolMode) Valid() bool {
	switch m {
	case ModeNone, ModeWebSearch, ModeDeepAnalysis, ModeStudy:
		return true
	}
	return false
}
