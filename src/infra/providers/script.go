package providers

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/contre95/lyricbar/src/features/config"
	"github.com/contre95/lyricbar/src/infra/shell"
	"github.com/contre95/lyricbar/src/music"
)

// ConfigReader reads a single setting by key.
type ConfigReader interface {
	GetString(key string) string
}

// CommandRunner runs a shell command line and waits for it.
type CommandRunner interface {
	Run(ctx context.Context, cmdline string) (shell.Output, error)
}

// ScriptProvider fetches lyrics by running the user's command template for a track.
type ScriptProvider struct {
	config   ConfigReader
	compiler music.TemplateCompiler
	runner   CommandRunner
}

// NewScriptProvider creates a new script provider
func NewScriptProvider(cfg ConfigReader, compiler music.TemplateCompiler, runner CommandRunner) *ScriptProvider {
	return &ScriptProvider{
		config:   cfg,
		compiler: compiler,
		runner:   runner,
	}
}

func (p *ScriptProvider) Name() string { return "script" }

// TryResolve runs the configured command and returns its output if the
// command succeeded and printed valid UTF-8. No command configured means no result.
func (p *ScriptProvider) TryResolve(ctx context.Context, track *music.Track) (string, bool) {
	template := p.config.GetString(config.KeyCustomCommand)
	if template == "" {
		return "", false
	}

	compiled, err := p.compiler.Compile(template)
	if err != nil {
		slog.Error("Invalid script command", "template", template, "error", err)
		return "", false
	}

	cmdline, err := compiled.Evaluate(track)
	if err != nil {
		slog.Error("Invalid script command", "template", template, "error", err)
		return "", false
	}

	out, err := p.runner.Run(ctx, cmdline)
	if err != nil {
		if errors.Is(err, shell.ErrSpawn) {
			slog.Error("Failed to spawn lyrics command", "command", cmdline, "error", err)
		} else {
			slog.Warn("Lyrics command did not finish", "command", cmdline, "error", err)
		}
		return "", false
	}

	if len(out.Stderr) > 0 {
		slog.Debug("Lyrics command wrote to stderr", "command", cmdline, "stderr", string(out.Stderr))
	}
	if !out.Success() || len(out.Stdout) == 0 {
		slog.Debug("Lyrics command produced no lyrics", "command", cmdline, "exitCode", out.ExitCode, "outputLength", len(out.Stdout))
		return "", false
	}

	if !utf8.Valid(out.Stdout) {
		slog.Warn("Script output is not a valid UTF-8 string", "command", cmdline, "outputLength", len(out.Stdout))
		return "", false
	}
	return string(out.Stdout), true
}
