package main

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// config is the YAML configuration file schema. Every field can also be set
// by a CLI flag, and flags win over the file.
type config struct {
	Addr string `yaml:"addr"`

	LLM struct {
		// Provider is one of "claude", "openai" or "gemini".
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`

		// Project and Location select the Vertex AI backend for gemini.
		// When empty, the Gemini API key backend is used.
		Project  string `yaml:"project"`
		Location string `yaml:"location"`
	} `yaml:"llm"`

	MCP struct {
		// Command starts a local MCP server over stdio.
		Command string   `yaml:"command"`
		Args    []string `yaml:"args"`
		Env     []string `yaml:"env"`

		// URL connects to a remote MCP server over SSE. Mutually exclusive
		// with Command.
		URL     string            `yaml:"url"`
		Headers map[string]string `yaml:"headers"`
	} `yaml:"mcp"`

	LoopLimit    int    `yaml:"loop_limit"`
	SystemPrompt string `yaml:"system_prompt"`
}

func loadConfig(path string) (*config, error) {
	var cfg config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}

	return &cfg, nil
}

func (c *config) validate() error {
	if c.MCP.Command == "" && c.MCP.URL == "" {
		return goerr.New("either mcp.command or mcp.url must be configured")
	}
	if c.MCP.Command != "" && c.MCP.URL != "" {
		return goerr.New("mcp.command and mcp.url are mutually exclusive")
	}

	switch c.LLM.Provider {
	case "claude", "openai", "gemini":
		return nil
	case "":
		return goerr.New("llm.provider must be configured")
	default:
		return goerr.New("unknown llm.provider", goerr.V("provider", c.LLM.Provider))
	}
}
