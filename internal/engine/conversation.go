package engine

// Conversation is the append-only per-session message log. It grows
// monotonically; the recency window is the only slice sent to the
// reasoning client, while the full sequence is retained for audit and
// persistence. A Conversation is owned exclusively by one session and
// mutated only by the engine acting on that session's behalf, so no
// locking is needed.
type Conversation struct {
	msgs []ChatMessage
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the log. Invalid messages are appended as-is;
// validation happens where messages are produced.
func (c *Conversation) Append(m ChatMessage) {
	c.msgs = append(c.msgs, m)
}

// Len returns the number of stored messages.
func (c *Conversation) Len() int { return len(c.msgs) }

// Messages returns a copy of the full log in arrival order.
func (c *Conversation) Messages() []ChatMessage {
	out := make([]ChatMessage, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Window returns the last n messages (the full log if n <= 0 or the log
// is shorter). The returned slice is a copy; appends never invalidate it.
func (c *Conversation) Window(n int) []ChatMessage {
	if n <= 0 || len(c.msgs) <= n {
		return c.Messages()
	}
	out := make([]ChatMessage, n)
	copy(out, c.msgs[len(c.msgs)-n:])
	return out
}

// Last returns the most recent message and true, or a zero message and
// false when the log is empty.
func (c *Conversation) Last() (ChatMessage, bool) {
	if len(c.msgs) == 0 {
		return ChatMessage{}, false
	}
	return c.msgs[len(c.msgs)-1], true
}

// TruncateToolResult trims huge tool outputs before they enter the log,
// keeping the head and tail around an elision marker. maxChars <= 0
// disables trimming.
func TruncateToolResult(content string, maxChars int) string {
	if maxChars <= 0 || len(content) <= maxChars {
		return content
	}
	head := content[:maxChars/2]
	tail := content[len(content)-maxChars/2:]
	return head + "\n...\n" + tail
}
