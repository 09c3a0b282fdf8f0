// Package snippetsync regenerates the Official Snippets pages from the
// containerized synvert tools.
package snippetsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/synvert-hq/synsite/internal/config"
	"github.com/synvert-hq/synsite/internal/snippet"
)

// OutputName is the file written into each language directory.
const OutputName = "official_snippets.md"

// Result describes the page written for one language.
type Result struct {
	Language string
	Path     string
	Snippets int
	Groups   int
}

// Pipeline runs the sync steps for every configured language, one after
// another.
type Pipeline struct {
	cfg    *config.SyncConfig
	runner Runner
	logger *slog.Logger
	out    io.Writer
}

// New creates a pipeline. out receives rendered pages in dry-run mode.
func New(cfg *config.SyncConfig, runner Runner, logger *slog.Logger, out io.Writer) *Pipeline {
	return &Pipeline{cfg: cfg, runner: runner, logger: logger, out: out}
}

// Run syncs every language in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context) ([]Result, error) {
	var results []Result
	for _, lang := range p.cfg.Languages {
		res, err := p.syncLanguage(ctx, lang)
		if err != nil {
			return results, fmt.Errorf("sync %s: %w", lang, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *Pipeline) syncLanguage(ctx context.Context, lang string) (Result, error) {
	logger := p.logger.With("language", lang)
	toolName := "awesomecode-synvert-" + lang

	if !p.cfg.SkipPublish {
		dir := filepath.Join(p.cfg.ToolsDir, toolName)
		logger.Info("publishing tool", "dir", dir)
		if _, err := p.runner.Run(ctx, dir, "sh", "publish.sh"); err != nil {
			return Result{}, fmt.Errorf("publish: %w", err)
		}
	}

	image := fmt.Sprintf(p.cfg.Image, lang)
	logger.Info("listing snippets", "image", image)
	data, err := p.runner.Run(ctx, "", p.cfg.Docker,
		"run", "--rm", image, "synvert-"+lang, "--list", "--format", "json")
	if err != nil {
		return Result{}, fmt.Errorf("list snippets: %w", err)
	}

	page, groups, err := snippet.Page(lang, data)
	if err != nil {
		return Result{}, err
	}

	count := 0
	for _, g := range groups {
		count += len(g.Snippets)
	}

	path := filepath.Join(p.cfg.SiteDir, lang, OutputName)
	res := Result{Language: lang, Path: path, Snippets: count, Groups: len(groups)}

	if p.cfg.DryRun {
		fmt.Fprintf(p.out, "==> %s\n", path)
		if _, err := p.out.Write(page); err != nil {
			return Result{}, fmt.Errorf("write dry-run output: %w", err)
		}
		logger.Info("dry run", "path", path, "snippets", count, "groups", len(groups))
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("wrote snippets page", "path", path, "snippets", count, "groups", len(groups))
	return res, nil
}
