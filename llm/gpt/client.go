// Package gpt provides the OpenAI implementation of the LLM client
// interface.
package gpt

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/m-mizutani/browserpilot"
)

// Client is a client for the OpenAI chat completion API.
type Client struct {
	client       *openai.Client
	defaultModel string
}

var _ browserpilot.LLMClient = (*Client)(nil)

type Option func(*Client)

// WithModel sets the default model for chat completions.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// New creates a new client for the OpenAI API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: openai.GPT4o,
	}

	for _, option := range options {
		option(client)
	}

	client.client = openai.NewClient(apiKey)

	return client, nil
}

// NewSession creates a new chat session. The declared tools are converted to
// OpenAI function definitions; the system prompt becomes the first message.
func (c *Client) NewSession(ctx context.Context, options ...browserpilot.SessionOption) (browserpilot.LLMSession, error) {
	cfg := browserpilot.NewSessionConfig(options...)

	openaiTools := make([]openai.Tool, len(cfg.Tools))
	for i, tool := range cfg.Tools {
		openaiTools[i] = convertTool(tool)
	}

	session := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		tools:        openaiTools,
	}
	if cfg.SystemPrompt != "" {
		session.messages = append(session.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.SystemPrompt,
		})
	}

	return session, nil
}

// Session is a session for the OpenAI chat.
type Session struct {
	client       *openai.Client
	defaultModel string
	tools        []openai.Tool
	messages     []openai.ChatCompletionMessage
}

func (s *Session) appendInputs(input ...browserpilot.Input) error {
	for _, in := range input {
		switch v := in.(type) {
		case browserpilot.Text:
			s.messages = append(s.messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: string(v),
			})

		case browserpilot.FunctionResponse:
			content, err := functionResponseContent(v)
			if err != nil {
				return err
			}
			s.messages = append(s.messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: v.ID,
			})

		case browserpilot.Image:
			s.messages = append(s.messages, openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:" + v.MimeType() + ";base64," + v.Base64(),
						},
					},
				},
			})

		default:
			return goerr.Wrap(browserpilot.ErrInvalidInput, "invalid input type for openai")
		}
	}
	return nil
}

func functionResponseContent(v browserpilot.FunctionResponse) (string, error) {
	if v.Error != nil {
		data, err := json.Marshal(map[string]any{"error": v.Error.Error()})
		if err != nil {
			return "", goerr.Wrap(err, "failed to marshal function error")
		}
		return string(data), nil
	}

	data, err := json.Marshal(v.Data)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal function response")
	}
	return string(data), nil
}

// GenerateContent processes the input and generates a response.
func (s *Session) GenerateContent(ctx context.Context, input ...browserpilot.Input) (*browserpilot.Response, error) {
	if err := s.appendInputs(input...); err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:    s.defaultModel,
		Messages: s.messages,
		Tools:    s.tools,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion")
	}

	if len(resp.Choices) == 0 {
		return &browserpilot.Response{}, nil
	}

	message := resp.Choices[0].Message
	s.messages = append(s.messages, message)

	response := &browserpilot.Response{}
	if message.Content != "" {
		response.Texts = append(response.Texts, message.Content)
	}

	for _, toolCall := range message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tool arguments", goerr.V("tool", toolCall.Function.Name))
		}

		response.FunctionCalls = append(response.FunctionCalls, &browserpilot.FunctionCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: args,
		})
	}

	return response, nil
}
