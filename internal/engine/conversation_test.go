package engine

import (
	"fmt"
	"strings"
	"testing"
)

func TestConversationWindow(t *testing.T) {
	c := NewConversation()
	for i := 0; i < 10; i++ {
		c.Append(ChatMessage{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	tests := []struct {
		name      string
		n         int
		wantLen   int
		wantFirst string
	}{
		{name: "smaller than log", n: 3, wantLen: 3, wantFirst: "msg-7"},
		{name: "equal to log", n: 10, wantLen: 10, wantFirst: "msg-0"},
		{name: "larger than log", n: 50, wantLen: 10, wantFirst: "msg-0"},
		{name: "zero means all", n: 0, wantLen: 10, wantFirst: "msg-0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Window(tt.n)
			if len(got) != tt.wantLen {
				t.Fatalf("Window(%d) len = %d, want %d", tt.n, len(got), tt.wantLen)
			}
			if got[0].Content != tt.wantFirst {
				t.Errorf("Window(%d)[0] = %q, want %q", tt.n, got[0].Content, tt.wantFirst)
			}
		})
	}
}

func TestConversationWindowIsACopy(t *testing.T) {
	c := NewConversation()
	c.Append(ChatMessage{Role: RoleUser, Content: "original"})

	w := c.Window(5)
	w[0].Content = "mutated"

	if got := c.Messages()[0].Content; got != "original" {
		t.Errorf("log content = %q, want original (window must be a copy)", got)
	}
}

func TestConversationGrowsMonotonically(t *testing.T) {
	c := NewConversation()
	c.Append(ChatMessage{Role: RoleUser, Content: "a"})
	c.Append(ChatMessage{Role: RoleAssistant, Content: "b"})
	c.Append(ChatMessage{Role: RoleUser, Content: "c"})

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	msgs := c.Messages()
	for i, want := range []string{"a", "b", "c"} {
		if msgs[i].Content != want {
			t.Errorf("Messages()[%d] = %q, want %q (arrival order)", i, msgs[i].Content, want)
		}
	}
}

func TestTruncateToolResult(t *testing.T) {
	long := strings.Repeat("x", 500) + "MIDDLE" + strings.Repeat("y", 500)

	tests := []struct {
		name     string
		content  string
		maxChars int
		wantSame bool
	}{
		{name: "short output untouched", content: "short", maxChars: 100, wantSame: true},
		{name: "zero disables trimming", content: long, maxChars: 0, wantSame: true},
		{name: "long output trimmed", content: long, maxChars: 200, wantSame: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateToolResult(tt.content, tt.maxChars)
			if tt.wantSame {
				if got != tt.content {
					t.Errorf("content modified, want untouched")
				}
				return
			}
			if len(got) > tt.maxChars+len("\n...\n") {
				t.Errorf("trimmed len = %d, want <= %d", len(got), tt.maxChars+5)
			}
			if !strings.Contains(got, "\n...\n") {
				t.Errorf("trimmed output missing elision marker: %q", got)
			}
			if !strings.HasPrefix(got, "x") || !strings.HasSuffix(got, "y") {
				t.Errorf("trim must keep head and tail, got %q", got)
			}
		})
	}
}

func TestChatMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     ChatMessage
		wantErr bool
	}{
		{name: "user", msg: ChatMessage{Role: RoleUser, Content: "hi"}, wantErr: false},
		{name: "tool with id", msg: ChatMessage{Role: RoleTool, Content: "ok", ToolCallID: "call_1"}, wantErr: false},
		{name: "tool without id", msg: ChatMessage{Role: RoleTool, Content: "ok"}, wantErr: true},
		{name: "bad role", msg: ChatMessage{Role: "robot", Content: "?"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.msg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
