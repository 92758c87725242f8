// Package gemini provides the Google Gemini implementation of the LLM
// client interface.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/m-mizutani/browserpilot"
)

const DefaultModel = "gemini-2.5-flash"

// Client is a client for the Gemini API.
type Client struct {
	// client is the underlying Gemini client.
	client *genai.Client

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// generationConfig contains the default generation parameters.
	generationConfig *genai.GenerateContentConfig
}

var _ browserpilot.LLMClient = (*Client)(nil)

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
func WithModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 2.0
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.ensureConfig()
		c.generationConfig.Temperature = &temp
	}
}

// WithTopP sets the top_p parameter for text generation.
// Range: 0.0 to 1.0
func WithTopP(topP float32) Option {
	return func(c *Client) {
		c.ensureConfig()
		c.generationConfig.TopP = &topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		c.ensureConfig()
		c.generationConfig.MaxOutputTokens = maxTokens
	}
}

func (c *Client) ensureConfig() {
	if c.generationConfig == nil {
		c.generationConfig = &genai.GenerateContentConfig{}
	}
}

// New creates a new client for the Gemini API on Vertex AI.
// It requires a project ID and location.
func New(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("projectID is required")
	}
	if location == "" {
		return nil, goerr.New("location is required")
	}

	return newClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	}, options...)
}

// NewWithAPIKey creates a new client for the Gemini API using an API key.
func NewWithAPIKey(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("apiKey is required")
	}

	return newClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, options...)
}

func newClient(ctx context.Context, config *genai.ClientConfig, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: DefaultModel,
	}
	for _, option := range options {
		option(client)
	}

	newClient, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	client.client = newClient
	return client, nil
}

// NewSession creates a new session for the Gemini API.
// It converts the declared tools to Gemini's tool format and initializes a
// new chat session.
func (c *Client) NewSession(ctx context.Context, options ...browserpilot.SessionOption) (browserpilot.LLMSession, error) {
	cfg := browserpilot.NewSessionConfig(options...)

	config := &genai.GenerateContentConfig{}
	if c.generationConfig != nil {
		*config = *c.generationConfig
	}

	if cfg.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Role: "system",
			Parts: []*genai.Part{
				{Text: cfg.SystemPrompt},
			},
		}
	}

	if len(cfg.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, len(cfg.Tools))
		for i, tool := range cfg.Tools {
			declarations[i] = convertTool(tool)
		}
		config.Tools = []*genai.Tool{
			{FunctionDeclarations: declarations},
		}
	}

	session := &Session{
		client: c.client,
		model:  c.defaultModel,
		config: config,
	}

	return session, nil
}

// Session is a session for the Gemini chat.
// It maintains the conversation state and handles message generation.
type Session struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig

	// contents stores the conversation history.
	contents []*genai.Content
}

// convertInputs converts inputs to Gemini parts.
func (s *Session) convertInputs(input ...browserpilot.Input) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(input))

	for _, in := range input {
		switch v := in.(type) {
		case browserpilot.Text:
			parts = append(parts, &genai.Part{Text: string(v)})

		case browserpilot.Image:
			// Gemini has no GIF support.
			if v.MimeType() == "image/gif" {
				return nil, goerr.New("GIF format is not supported by Gemini", goerr.V("mime_type", v.MimeType()))
			}
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{
					MIMEType: v.MimeType(),
					Data:     v.Data(),
				},
			})

		case browserpilot.FunctionResponse:
			response := v.Data
			if v.Error != nil {
				response = map[string]any{
					"error_message": v.Error.Error(),
				}
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     v.Name,
					Response: response,
				},
			})

		default:
			return nil, goerr.Wrap(browserpilot.ErrInvalidInput, "invalid input type for gemini")
		}
	}
	return parts, nil
}

// processResponse converts a Gemini response to the provider-neutral form.
// Gemini does not assign tool call IDs, so synthetic ones are generated.
func processResponse(resp *genai.GenerateContentResponse) (*browserpilot.Response, error) {
	response := &browserpilot.Response{}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				response.Texts = append(response.Texts, part.Text)
			}

			if part.FunctionCall != nil {
				response.FunctionCalls = append(response.FunctionCalls, &browserpilot.FunctionCall{
					ID:        fmt.Sprintf("%s_%d", part.FunctionCall.Name, time.Now().UnixNano()),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
	}

	return response, nil
}

// GenerateContent generates content based on the input.
func (s *Session) GenerateContent(ctx context.Context, input ...browserpilot.Input) (*browserpilot.Response, error) {
	parts, err := s.convertInputs(input...)
	if err != nil {
		return nil, err
	}

	s.contents = append(s.contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: parts,
	})

	resp, err := s.client.Models.GenerateContent(ctx, s.model, s.contents, s.config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			s.contents = append(s.contents, candidate.Content)
		}
	}

	return processResponse(resp)
}
