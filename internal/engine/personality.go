package engine

import (
	"context"
	"strings"
)

// enhanceFinalText rewrites the final answer through the optional
// personality client. The pass is best-effort: any failure, and any blank
// rewrite, falls back to the unmodified text so the loop outcome never
// depends on it.
func (e *Engine) enhanceFinalText(ctx context.Context, text string, res *LoopResult) string {
	if e.personality == nil || strings.TrimSpace(text) == "" {
		return text
	}

	msgs := []ChatMessage{
		{Role: RoleSystem, Content: e.personalityPrompt, CreatedAt: e.now()},
		{Role: RoleUser, Content: text, CreatedAt: e.now()},
	}

	resp, err := e.personality.Chat(ctx, e.cfg.PersonalityModel, msgs, nil, e.chatOptions())
	if err != nil || strings.TrimSpace(resp.Assistant.Content) == "" {
		return text
	}

	res.Usage.Add(resp.Usage)
	return resp.Assistant.Content
}
