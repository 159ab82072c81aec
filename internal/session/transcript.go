package session

import (
	"fmt"
	"strings"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

const transcriptPreviewChars = 500

// RenderTranscript flattens messages into a plain-text transcript, one
// "[role] content" line per message. Tool requests render by name so a
// reader can follow the dispatch flow, and long bodies are trimmed to a
// preview. Used to hand one session's recent activity to another session
// and to render degraded reports.
func RenderTranscript(messages []engine.ChatMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		switch m.Role {
		case engine.RoleAssistant:
			if len(m.ToolCalls) > 0 {
				names := make([]string, 0, len(m.ToolCalls))
				for _, c := range m.ToolCalls {
					names = append(names, c.Name)
				}
				fmt.Fprintf(&sb, "[assistant] requested tools: %s\n", strings.Join(names, ", "))
			}
			if strings.TrimSpace(m.Content) != "" {
				fmt.Fprintf(&sb, "[assistant] %s\n", preview(m.Content))
			}
		case engine.RoleTool:
			fmt.Fprintf(&sb, "[tool %s] %s\n", m.ToolCallID, preview(m.Content))
		default:
			fmt.Fprintf(&sb, "[%s] %s\n", m.Role, preview(m.Content))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= transcriptPreviewChars {
		return s
	}
	return s[:transcriptPreviewChars] + "..."
}
