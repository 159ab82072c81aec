package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient implements engine.LLMClient by calling the Anthropic
// messages API directly.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client for the engine.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	client := anthropic.NewClient(apiKey)

	return &AnthropicClient{
		client: client,
		model:  modelName,
	}, nil
}

// Chat implements engine.LLMClient.Chat.
func (c *AnthropicClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	var systemParts []anthropic.MessageSystemPart
	var anthropicMsgs []anthropic.Message

	// Anthropic requires tool results to follow an assistant turn with
	// tool_use blocks, so track that ordering while converting.
	var prevAssistantHadToolCalls bool

	for i, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			systemParts = append(systemParts, anthropic.MessageSystemPart{
				Type: "text",
				Text: msg.Content,
			})
			prevAssistantHadToolCalls = false
		case engine.RoleUser:
			anthropicMsgs = append(anthropicMsgs, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
			})
			prevAssistantHadToolCalls = false
		case engine.RoleAssistant:
			var content []anthropic.MessageContent
			if msg.Content != "" && msg.Content != " " {
				content = append(content, anthropic.NewTextMessageContent(msg.Content))
			}

			if len(msg.ToolCalls) > 0 {
				for _, tc := range msg.ToolCalls {
					argsJSON, _ := json.Marshal(tc.Args)
					toolUse := anthropic.NewToolUseMessageContent(
						tc.ID,
						tc.Name,
						json.RawMessage(argsJSON),
					)
					content = append(content, toolUse)
				}
			}

			anthropicMsgs = append(anthropicMsgs, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: content,
			})
			prevAssistantHadToolCalls = len(msg.ToolCalls) > 0
		case engine.RoleTool:
			if !prevAssistantHadToolCalls {
				// Should not happen in normal flow; skip to avoid an API error.
				continue
			}
			// Anthropic may reject empty content.
			content := msg.Content
			if content == "" {
				content = "{}"
			}
			toolResult := anthropic.NewToolResultMessageContent(
				msg.ToolCallID,
				content,
				false,
			)
			anthropicMsgs = append(anthropicMsgs, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{toolResult},
			})
			if i+1 < len(messages) && messages[i+1].Role == engine.RoleAssistant {
				prevAssistantHadToolCalls = false
			}
		}
	}

	var toolDefs []anthropic.ToolDefinition
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return engine.LLMResponse{}, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}

		toolDefs = append(toolDefs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}

	maxTokens := 4096
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}

	temperature := float32(0.1)
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	model := modelName
	if model == "" {
		model = c.model
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		Messages:    anthropicMsgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}

	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}

	if len(toolDefs) > 0 {
		req.Tools = toolDefs
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	var textContent string
	var toolCalls []engine.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				textContent += *block.Text
			}
		case "tool_use":
			if block.MessageContentToolUse != nil && block.ID != "" && block.Name != "" {
				var args map[string]any
				if len(block.Input) > 0 {
					if err := json.Unmarshal(block.Input, &args); err != nil {
						args = make(map[string]any)
					}
				} else {
					args = make(map[string]any)
				}

				toolCalls = append(toolCalls, engine.ToolCall{
					ID:   block.ID,
					Name: block.Name,
					Args: args,
				})
			}
		}
	}

	finishReason := "stop"
	if len(toolCalls) > 0 {
		finishReason = "tool_calls"
	} else if resp.StopReason == "max_tokens" {
		finishReason = "length"
	} else if resp.StopReason == "content_filtered" {
		finishReason = "content_filter"
	}

	usage := engine.Usage{
		Prompt:     resp.Usage.InputTokens,
		Completion: resp.Usage.OutputTokens,
		Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}

	assistantMsg := engine.ChatMessage{
		Role:      engine.RoleAssistant,
		Content:   textContent,
		ToolCalls: toolCalls,
	}

	return engine.LLMResponse{
		Assistant:    assistantMsg,
		ToolCalls:    toolCalls,
		Usage:        usage,
		FinishReason: finishReason,
	}, nil
}
