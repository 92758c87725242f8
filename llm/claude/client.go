// Package claude provides the Anthropic Claude implementation of the LLM
// client interface.
package claude

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/browserpilot"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	Temperature float64

	// TopP controls diversity via nucleus sampling.
	TopP float64

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int64
}

// Client is a client for the Claude API.
type Client struct {
	// client is the underlying Claude client.
	client *anthropic.Client

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// generation parameters
	params generationParameters
}

var _ browserpilot.LLMClient = (*Client)(nil)

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
// Default: anthropic.ModelClaude3_7SonnetLatest
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 1.0. Default: 0.7
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithTopP sets the top_p parameter for text generation.
// Range: 0.0 to 1.0. Default: 1.0
func WithTopP(topP float64) Option {
	return func(c *Client) {
		c.params.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 4096
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// New creates a new client for the Claude API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: anthropic.ModelClaude3_7SonnetLatest,
		params: generationParameters{
			Temperature: 0.7,
			TopP:        1.0,
			MaxTokens:   4096,
		},
	}

	for _, option := range options {
		option(client)
	}

	newClient := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	client.client = &newClient

	return client, nil
}

// Session is a session for the Claude chat.
// It maintains the conversation state and handles message generation.
type Session struct {
	// client is the underlying Claude client.
	client *anthropic.Client

	// defaultModel is the model to use for chat completions.
	defaultModel string

	// system is the system prompt for the session, if any.
	system string

	// tools are the available tools for the session.
	tools []anthropic.ToolUnionParam

	// messages stores the conversation history.
	messages []anthropic.MessageParam

	// generation parameters
	params generationParameters
}

// NewSession creates a new session for the Claude API.
// It converts the declared tools to Claude's tool format and initializes a
// new chat session.
func (c *Client) NewSession(ctx context.Context, options ...browserpilot.SessionOption) (browserpilot.LLMSession, error) {
	cfg := browserpilot.NewSessionConfig(options...)

	claudeTools := make([]anthropic.ToolUnionParam, len(cfg.Tools))
	for i, tool := range cfg.Tools {
		claudeTools[i] = convertTool(tool)
	}

	session := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		system:       cfg.SystemPrompt,
		tools:        claudeTools,
		params:       c.params,
	}

	return session, nil
}

// convertInputs converts inputs to Claude messages. Tool results and images
// belonging to the same turn are grouped into one user message.
func (s *Session) convertInputs(input ...browserpilot.Input) ([]anthropic.MessageParam, error) {
	var turnBlocks []anthropic.ContentBlockParamUnion
	var messages []anthropic.MessageParam

	for _, in := range input {
		switch v := in.(type) {
		case browserpilot.Text:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(string(v)),
			))

		case browserpilot.FunctionResponse:
			if v.Error != nil {
				turnBlocks = append(turnBlocks, anthropic.NewToolResultBlock(v.ID, v.Error.Error(), true))
				continue
			}
			response, err := json.Marshal(v.Data)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to marshal function response")
			}
			turnBlocks = append(turnBlocks, anthropic.NewToolResultBlock(v.ID, string(response), false))

		case browserpilot.Image:
			turnBlocks = append(turnBlocks, anthropic.NewImageBlockBase64(v.MimeType(), v.Base64()))

		default:
			return nil, goerr.Wrap(browserpilot.ErrInvalidInput, "invalid input type for claude")
		}
	}

	if len(turnBlocks) > 0 {
		messages = append(messages, anthropic.NewUserMessage(turnBlocks...))
	}

	return messages, nil
}

// createRequest creates a message request with the current session state.
func (s *Session) createRequest(messages []anthropic.MessageParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       s.defaultModel,
		MaxTokens:   s.params.MaxTokens,
		Temperature: anthropic.Float(s.params.Temperature),
		TopP:        anthropic.Float(s.params.TopP),
		Tools:       s.tools,
		Messages:    messages,
	}
	if s.system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: s.system},
		}
	}
	return params
}

// processResponse converts a Claude response to the provider-neutral form.
func processResponse(resp *anthropic.Message) (*browserpilot.Response, error) {
	response := &browserpilot.Response{}

	for _, content := range resp.Content {
		textBlock := content.AsResponseTextBlock()
		if textBlock.Type == "text" {
			response.Texts = append(response.Texts, textBlock.Text)
		}

		toolUseBlock := content.AsResponseToolUseBlock()
		if toolUseBlock.Type == "tool_use" {
			var args map[string]any
			if err := json.Unmarshal([]byte(toolUseBlock.Input), &args); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal function arguments", goerr.V("tool", toolUseBlock.Name))
			}

			response.FunctionCalls = append(response.FunctionCalls, &browserpilot.FunctionCall{
				ID:        toolUseBlock.ID,
				Name:      toolUseBlock.Name,
				Arguments: args,
			})
		}
	}

	return response, nil
}

// GenerateContent processes the input and generates a response.
// It handles text messages, function responses and images.
func (s *Session) GenerateContent(ctx context.Context, input ...browserpilot.Input) (*browserpilot.Response, error) {
	messages, err := s.convertInputs(input...)
	if err != nil {
		return nil, err
	}

	s.messages = append(s.messages, messages...)
	params := s.createRequest(s.messages)

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create message")
	}

	// Add assistant's response to message history
	s.messages = append(s.messages, resp.ToParam())

	return processResponse(resp)
}
