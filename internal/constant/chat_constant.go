package constant

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"

	// Session titles are derived from the first user turn: the first
	// TitleMaxLength characters plus an ellipsis when truncated.
	DefaultSessionTitle = "New Chat"
	TitleMaxLength      = 30
	TitleEllipsis       = "..."

	// SessionEventsTopic is the in-process bus topic carrying session
	// events from the chat service to the websocket fan-out.
	SessionEventsTopic = "chat.session_events"
)
