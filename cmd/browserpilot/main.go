package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/browserpilot"
	"github.com/m-mizutani/browserpilot/llm/claude"
	"github.com/m-mizutani/browserpilot/llm/gemini"
	"github.com/m-mizutani/browserpilot/llm/gpt"
	"github.com/m-mizutani/browserpilot/mcp"
)

func main() {
	app := &cli.Command{
		Name:  "browserpilot",
		Usage: "LLM-driven browser automation with recordable replay",
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the task API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Sources: cli.EnvVars("BROWSERPILOT_CONFIG"),
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "addr",
				Sources: cli.EnvVars("BROWSERPILOT_ADDR"),
				Usage:   "Server listen address",
			},
			&cli.StringFlag{
				Name:    "llm-provider",
				Sources: cli.EnvVars("BROWSERPILOT_LLM_PROVIDER"),
				Usage:   "LLM provider: claude, openai or gemini",
			},
			&cli.StringFlag{
				Name:    "llm-model",
				Sources: cli.EnvVars("BROWSERPILOT_LLM_MODEL"),
				Usage:   "Model name override for the selected provider",
			},
			&cli.StringFlag{
				Name:    "anthropic-api-key",
				Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
				Usage:   "API key for the claude provider",
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
				Usage:   "API key for the openai provider",
			},
			&cli.StringFlag{
				Name:    "gemini-api-key",
				Sources: cli.EnvVars("GEMINI_API_KEY"),
				Usage:   "API key for the gemini provider",
			},
			&cli.StringFlag{
				Name:    "mcp-command",
				Sources: cli.EnvVars("BROWSERPILOT_MCP_COMMAND"),
				Usage:   "Local MCP server executable (stdio transport)",
			},
			&cli.StringSliceFlag{
				Name:  "mcp-arg",
				Usage: "Argument passed to the local MCP server (repeatable)",
			},
			&cli.StringFlag{
				Name:    "mcp-url",
				Sources: cli.EnvVars("BROWSERPILOT_MCP_URL"),
				Usage:   "Remote MCP server base URL (SSE transport)",
			},
			&cli.IntFlag{
				Name:    "loop-limit",
				Sources: cli.EnvVars("BROWSERPILOT_LOOP_LIMIT"),
				Usage:   "Maximum LLM iterations per task",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("BROWSERPILOT_LOG_LEVEL"),
				Usage:   "Log level: debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:    "log-json",
				Sources: cli.EnvVars("BROWSERPILOT_LOG_JSON"),
				Usage:   "Emit logs as JSON",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.String("log-level"), cmd.Bool("log-json"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	applyFlags(cfg, cmd)
	if err := cfg.validate(); err != nil {
		return err
	}

	llmClient, err := newLLMClient(ctx, cfg, cmd)
	if err != nil {
		return err
	}

	factory := func(ctx context.Context) (browserpilot.SessionClient, error) {
		if cfg.MCP.Command != "" {
			return mcp.NewStdio(cfg.MCP.Command, cfg.MCP.Args, mcp.WithEnvVars(cfg.MCP.Env)), nil
		}
		return mcp.NewSSE(cfg.MCP.URL, mcp.WithHeaders(cfg.MCP.Headers)), nil
	}

	hub := newWSHub(logger)
	go hub.run(ctx)

	orchOpts := []browserpilot.OrchestratorOption{
		browserpilot.WithLogger(logger),
	}
	if cfg.LoopLimit > 0 {
		orchOpts = append(orchOpts, browserpilot.WithLoopLimit(cfg.LoopLimit))
	}
	if cfg.SystemPrompt != "" {
		orchOpts = append(orchOpts, browserpilot.WithSystemPrompt(cfg.SystemPrompt))
	}

	manager := browserpilot.NewManager(llmClient, factory,
		browserpilot.WithManagerLogSink(hub),
		browserpilot.WithOrchestratorOptions(orchOpts...),
	)

	opts := []serverOption{}
	if cfg.Addr != "" {
		opts = append(opts, withAddr(cfg.Addr))
	}

	s := newServer(manager, hub, logger, opts...)
	return s.start(ctx)
}

func applyFlags(cfg *config, cmd *cli.Command) {
	if v := cmd.String("addr"); v != "" {
		cfg.Addr = v
	}
	if v := cmd.String("llm-provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := cmd.String("llm-model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := cmd.String("mcp-command"); v != "" {
		cfg.MCP.Command = v
	}
	if v := cmd.StringSlice("mcp-arg"); len(v) > 0 {
		cfg.MCP.Args = v
	}
	if v := cmd.String("mcp-url"); v != "" {
		cfg.MCP.URL = v
	}
	if v := cmd.Int("loop-limit"); v > 0 {
		cfg.LoopLimit = int(v)
	}
}

func newLLMClient(ctx context.Context, cfg *config, cmd *cli.Command) (browserpilot.LLMClient, error) {
	switch cfg.LLM.Provider {
	case "claude":
		apiKey := cmd.String("anthropic-api-key")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the claude provider")
		}
		var opts []claude.Option
		if cfg.LLM.Model != "" {
			opts = append(opts, claude.WithModel(cfg.LLM.Model))
		}
		return claude.New(ctx, apiKey, opts...)

	case "openai":
		apiKey := cmd.String("openai-api-key")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		var opts []gpt.Option
		if cfg.LLM.Model != "" {
			opts = append(opts, gpt.WithModel(cfg.LLM.Model))
		}
		return gpt.New(ctx, apiKey, opts...)

	case "gemini":
		var opts []gemini.Option
		if cfg.LLM.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.LLM.Model))
		}
		if cfg.LLM.Project != "" {
			return gemini.New(ctx, cfg.LLM.Project, cfg.LLM.Location, opts...)
		}
		apiKey := cmd.String("gemini-api-key")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider without a project")
		}
		return gemini.NewWithAPIKey(ctx, apiKey, opts...)

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}

func newLogger(level string, jsonFormat bool) (*slog.Logger, error) {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "info", "":
		lv = slog.LevelInfo
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", level)
	}

	opts := &slog.HandlerOptions{Level: lv}
	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}
