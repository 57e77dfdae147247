package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const systemPrompt = `You write short project blurbs for a developer portfolio. Given a GitHub repository's name, primary language and topics, reply with one or two plain sentences describing what the project is. No markdown, no quotes, no preamble.`

// ProjectInfo is what the model sees about a project.
type ProjectInfo struct {
	FullName string
	Language *string
	Topics   []string
}

// Describe writes a description for a project that has none.
func (c *Client) Describe(ctx context.Context, p ProjectInfo) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt(p)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM call for %s: %w", p.FullName, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned for %s", p.FullName)
	}

	text := cleanup(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty description returned for %s", p.FullName)
	}
	return text, nil
}

func prompt(p ProjectInfo) string {
	parts := []string{fmt.Sprintf("Repository: %s", p.FullName)}
	if p.Language != nil {
		parts = append(parts, fmt.Sprintf("Language: %s", *p.Language))
	}
	if len(p.Topics) > 0 {
		parts = append(parts, fmt.Sprintf("Topics: %s", strings.Join(p.Topics, ", ")))
	}
	return strings.Join(parts, "\n")
}

// cleanup strips code fences and wrapping quotes some models add.
func cleanup(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	s = strings.Trim(s, `"“”`)
	return strings.TrimSpace(s)
}
