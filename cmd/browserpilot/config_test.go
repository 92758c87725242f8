package main_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	main "github.com/m-mizutani/browserpilot/cmd/browserpilot"
)

func TestLoadConfig(t *testing.T) {
	t.Run("empty path yields zero config", func(t *testing.T) {
		cfg := gt.R1(main.LoadConfig("")).NoError(t)
		gt.Equal(t, cfg.Addr, "")
		gt.Equal(t, cfg.LLM.Provider, "")
	})

	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		body := `
addr: ":9090"
llm:
  provider: claude
  model: claude-3-7-sonnet-latest
mcp:
  command: /usr/local/bin/browser-mcp
  args: ["--headless"]
loop_limit: 8
`
		gt.NoError(t, os.WriteFile(path, []byte(body), 0600))

		cfg := gt.R1(main.LoadConfig(path)).NoError(t)
		gt.Equal(t, cfg.Addr, ":9090")
		gt.Equal(t, cfg.LLM.Provider, "claude")
		gt.Equal(t, cfg.LLM.Model, "claude-3-7-sonnet-latest")
		gt.Equal(t, cfg.MCP.Command, "/usr/local/bin/browser-mcp")
		gt.Equal(t, cfg.MCP.Args, []string{"--headless"})
		gt.Equal(t, cfg.LoopLimit, 8)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := main.LoadConfig("/no/such/config.yml")
		gt.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	base := func() *main.Config {
		var cfg main.Config
		cfg.LLM.Provider = "claude"
		cfg.MCP.Command = "/usr/local/bin/browser-mcp"
		return &cfg
	}

	t.Run("valid", func(t *testing.T) {
		gt.NoError(t, base().Validate())
	})

	t.Run("missing provider endpoint", func(t *testing.T) {
		cfg := base()
		cfg.MCP.Command = ""
		gt.Error(t, cfg.Validate())
	})

	t.Run("command and url are exclusive", func(t *testing.T) {
		cfg := base()
		cfg.MCP.URL = "https://mcp.example.com/sse"
		gt.Error(t, cfg.Validate())
	})

	t.Run("unknown llm provider", func(t *testing.T) {
		cfg := base()
		cfg.LLM.Provider = "palm"
		gt.Error(t, cfg.Validate())
	})

	t.Run("empty llm provider", func(t *testing.T) {
		cfg := base()
		cfg.LLM.Provider = ""
		gt.Error(t, cfg.Validate())
	})
}
