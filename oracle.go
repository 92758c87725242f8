package browserpilot

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// LLMClient is a client for a tool-calling LLM service. Given a conversation
// and a tool schema it returns either plain text or structured tool calls.
type LLMClient interface {
	NewSession(ctx context.Context, options ...SessionOption) (LLMSession, error)
}

// LLMSession holds one conversation with the LLM. Implementations own the
// provider-specific message history; callers only append inputs and read
// responses.
type LLMSession interface {
	GenerateContent(ctx context.Context, input ...Input) (*Response, error)
}

type sessionConfig struct {
	systemPrompt string
	tools        []ToolSpec
}

// SessionOption configures a new LLM session.
type SessionOption func(*sessionConfig)

// WithSessionSystemPrompt sets the system prompt for the session.
func WithSessionSystemPrompt(prompt string) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.systemPrompt = prompt
	}
}

// WithSessionTools attaches the tool schema to the session.
func WithSessionTools(tools ...ToolSpec) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.tools = append(cfg.tools, tools...)
	}
}

// NewSessionConfig builds a session config from options. It is exported for
// use by LLM client implementations in sub-packages.
func NewSessionConfig(options ...SessionOption) SessionConfig {
	cfg := &sessionConfig{}
	for _, opt := range options {
		opt(cfg)
	}
	return SessionConfig{
		SystemPrompt: cfg.systemPrompt,
		Tools:        cfg.tools,
	}
}

// SessionConfig is the resolved configuration of an LLM session.
type SessionConfig struct {
	SystemPrompt string
	Tools        []ToolSpec
}

// FunctionCall is one structured tool invocation emitted by the LLM.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Response is a general response type for each LLM provider.
type Response struct {
	Texts         []string
	FunctionCalls []*FunctionCall
}

// HasToolCalls reports whether the LLM requested any tool invocation.
func (r *Response) HasToolCalls() bool {
	return len(r.FunctionCalls) > 0
}

// Text returns the concatenated text content of the response.
func (r *Response) Text() string {
	return strings.Join(r.Texts, "\n")
}

// Input is one element appended to the conversation before the next LLM turn.
type Input interface {
	isInput() restrictedValue
	LogValue() slog.Value
}

type restrictedValue struct{}

// Text is a text input as prompt.
type Text string

func (t Text) isInput() restrictedValue {
	return restrictedValue{}
}

func (t Text) LogValue() slog.Value {
	return slog.StringValue(string(t))
}

// FunctionResponse is the result of a tool invocation fed back to the LLM.
// A failed invocation carries Error instead of Data; the LLM sees the error
// string and may try an alternative approach.
type FunctionResponse struct {
	ID    string
	Name  string
	Data  map[string]any
	Error error
}

func (f FunctionResponse) isInput() restrictedValue {
	return restrictedValue{}
}

func (f FunctionResponse) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", f.ID),
		slog.String("name", f.Name),
	}
	if f.Error != nil {
		attrs = append(attrs, slog.String("error", f.Error.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Image is a visual snapshot attached to the conversation as context for the
// LLM's next turn.
type Image struct {
	data     []byte
	mimeType string
}

func (i Image) isInput() restrictedValue {
	return restrictedValue{}
}

func (i Image) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("image (%d bytes, %s)", len(i.data), i.mimeType))
}

// Data returns the image data as bytes.
func (i Image) Data() []byte {
	return i.data
}

// MimeType returns the MIME type of the image.
func (i Image) MimeType() string {
	return i.mimeType
}

// Base64 returns the base64 encoded string of the image data.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.data)
}

// NewImage creates a new Image input. The MIME type is detected from the
// data when not supplied.
func NewImage(data []byte, mimeType string) (Image, error) {
	if mimeType == "" {
		detected, err := detectImageMimeType(data)
		if err != nil {
			return Image{}, err
		}
		mimeType = detected
	}
	return Image{data: data, mimeType: mimeType}, nil
}

func detectImageMimeType(data []byte) (string, error) {
	if len(data) < 12 {
		return "", goerr.New("data too short to detect image format")
	}

	switch {
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg", nil
	case bytes.Equal(data[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png", nil
	case bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a")):
		return "image/gif", nil
	case bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp", nil
	}

	return "", goerr.New("unsupported image format")
}
