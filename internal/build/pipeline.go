// Package build coordinates the extraction pipeline: discover snippet
// sources, reuse cached pages where fingerprints match, render the rest and
// hand the catalog to the docc compiler.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doccbuild/internal/cache"
	"git.home.luguber.info/inful/doccbuild/internal/config"
	"git.home.luguber.info/inful/doccbuild/internal/docc"
	"git.home.luguber.info/inful/doccbuild/internal/events"
	"git.home.luguber.info/inful/doccbuild/internal/logfields"
	"git.home.luguber.info/inful/doccbuild/internal/metrics"
	"git.home.luguber.info/inful/doccbuild/internal/render"
	"git.home.luguber.info/inful/doccbuild/internal/snippet"
	"git.home.luguber.info/inful/doccbuild/internal/target"
)

// Options carries the optional collaborators a pipeline may use. Any of them
// may be left nil; the pipeline degrades gracefully.
type Options struct {
	Store     *cache.Store
	Runner    *docc.Runner
	Recorder  metrics.Recorder
	Publisher *events.Publisher
}

// Pipeline runs snippet extraction and docc conversion for one configuration.
type Pipeline struct {
	cfg       *config.Config
	discovery *snippet.Discovery
	renderer  *render.Renderer
	store     *cache.Store
	runner    *docc.Runner
	recorder  metrics.Recorder
	publisher *events.Publisher
}

// NewPipeline assembles a pipeline from config and optional collaborators.
func NewPipeline(cfg *config.Config, opts Options) *Pipeline {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Pipeline{
		cfg:       cfg,
		discovery: snippet.NewDiscovery(cfg.Snippets.Roots, cfg.Snippets.Extensions),
		renderer:  render.New(cfg.Render.Output),
		store:     opts.Store,
		runner:    opts.Runner,
		recorder:  recorder,
		publisher: opts.Publisher,
	}
}

// ExtractResult summarizes one extraction pass.
type ExtractResult struct {
	Pages     []string
	Extracted int
	Cached    int
	Failed    int
	Duration  time.Duration
}

// Total returns the number of snippet files processed.
func (r ExtractResult) Total() int {
	return r.Extracted + r.Cached + r.Failed
}

// Extract discovers snippet sources and writes one Markdown page per file
// under the render output directory. Files whose fingerprint matches the
// cache skip parsing and rendering entirely. Individual file failures are
// counted and logged, not fatal.
func (p *Pipeline) Extract(ctx context.Context) (ExtractResult, error) {
	start := time.Now()
	var result ExtractResult

	files, err := p.discovery.DiscoverAll()
	if err != nil {
		return result, fmt.Errorf("discover snippet sources: %w", err)
	}

	knownPaths := make([]string, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		knownPaths = append(knownPaths, file.Path)

		written, outcome, err := p.extractOne(ctx, file)
		p.recorder.IncSnippetResult(outcome)
		switch outcome {
		case "failed":
			result.Failed++
			slog.Warn("Failed to extract snippet",
				logfields.Snippet(file.Name), logfields.Error(err))
			continue
		case "cached":
			result.Cached++
		default:
			result.Extracted++
		}
		result.Pages = append(result.Pages, written)
	}

	if p.store != nil {
		if removed, err := p.store.Prune(ctx, knownPaths); err != nil {
			slog.Warn("Failed to prune snippet cache", logfields.Error(err))
		} else if removed > 0 {
			slog.Debug("Pruned stale cache entries", slog.Int64("removed", removed))
		}
	}

	result.Duration = time.Since(start)
	p.recorder.ObserveExtractDuration(result.Duration)

	slog.Info("Snippet extraction finished",
		slog.Int("extracted", result.Extracted),
		slog.Int("cached", result.Cached),
		slog.Int("failed", result.Failed),
		logfields.DurationMS(result.Duration))
	return result, nil
}

// extractOne processes a single source file and returns the written page
// path plus the outcome label used for metrics.
func (p *Pipeline) extractOne(ctx context.Context, file snippet.File) (string, string, error) {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return "", "failed", fmt.Errorf("read source: %w", err)
	}
	fingerprint := cache.Fingerprint(content)

	if p.store != nil {
		cached, hit, err := p.store.Lookup(ctx, file.Path, fingerprint)
		if err != nil {
			slog.Warn("Cache lookup failed", logfields.Path(file.Path), logfields.Error(err))
		} else if hit {
			written, err := p.renderer.Write(render.Page{
				RelativePath: render.PageRelativePath(file),
				Content:      cached,
			})
			if err != nil {
				return "", "failed", err
			}
			return written, "cached", nil
		}
	}

	page, err := p.renderer.RenderFile(file, snippet.Parse(string(content)))
	if err != nil {
		return "", "failed", err
	}
	written, err := p.renderer.Write(page)
	if err != nil {
		return "", "failed", err
	}

	if p.store != nil {
		if err := p.store.Put(ctx, file.Path, fingerprint, page.Content); err != nil {
			slog.Warn("Cache store failed", logfields.Path(file.Path), logfields.Error(err))
		}
	}
	return written, "extracted", nil
}

// ConvertResult summarizes a full build.
type ConvertResult struct {
	BuildID string
	Extract ExtractResult
	Archive string
}

// Convert runs the full pipeline: extraction, then a docc convert of the
// configured catalog for the resolved target, then an archive sanity check.
func (p *Pipeline) Convert(ctx context.Context, targetName string, userArgs []string) (ConvertResult, error) {
	start := time.Now()
	result := ConvertResult{BuildID: uuid.NewString()}

	slog.Info("Starting documentation build", logfields.BuildID(result.BuildID))
	p.publisher.Publish(events.BuildEvent{
		BuildID: result.BuildID,
		Type:    events.TypeBuildStarted,
	})

	err := p.convert(ctx, targetName, userArgs, &result)

	outcome := "success"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	case err != nil:
		outcome = "failed"
	}
	p.recorder.IncBuildOutcome(outcome)
	p.recorder.ObserveBuildDuration(time.Since(start))
	p.publisher.Publish(events.BuildEvent{
		BuildID:  result.BuildID,
		Type:     events.TypeBuildFinished,
		Outcome:  outcome,
		Snippets: result.Extract.Total(),
	})

	if err != nil {
		return result, err
	}
	slog.Info("Documentation build finished",
		logfields.BuildID(result.BuildID),
		logfields.Path(result.Archive),
		logfields.DurationMS(time.Since(start)))
	return result, nil
}

func (p *Pipeline) convert(ctx context.Context, targetName string, userArgs []string, result *ConvertResult) error {
	extract, err := p.Extract(ctx)
	result.Extract = extract
	if err != nil {
		return err
	}

	if p.runner == nil {
		return fmt.Errorf("docc compiler not available: %w", docc.ErrDoccNotFound)
	}

	tgt, err := p.resolveTarget(targetName)
	if err != nil {
		return err
	}

	args := docc.Arguments{"convert"}
	if p.cfg.Docc.Catalog != "" {
		args = append(args, p.cfg.Docc.Catalog)
	}
	args = append(args, docc.BuildArguments(p.cfg.Docc, tgt, userArgs)...)
	args = append(args, docc.SourceLinkArguments(".", p.cfg.Docc.SourceService)...)

	doccStart := time.Now()
	err = p.runner.Run(ctx, args)
	p.recorder.ObserveDoccDuration("convert", time.Since(doccStart))
	if err != nil {
		return fmt.Errorf("docc convert: %w", err)
	}

	result.Archive = p.cfg.Docc.Output
	if err := docc.CheckArchive(result.Archive, p.cfg.Docc.HostingBasePath); err != nil {
		slog.Warn("Archive check failed", logfields.Path(result.Archive), logfields.Error(err))
	}
	return nil
}

// resolveTarget picks the documentation target. A named target must exist in
// the dump; otherwise the first target matching the configured kinds wins.
// Without a dump file the catalog name stands in as a synthetic target.
func (p *Pipeline) resolveTarget(name string) (target.Target, error) {
	graph, err := target.Load(p.cfg.Targets.DumpPath)
	if err != nil {
		if name != "" {
			return target.Target{}, fmt.Errorf("load target dump: %w", err)
		}
		slog.Debug("No target dump, using catalog-derived target", logfields.Error(err))
		return p.syntheticTarget(), nil
	}

	if name != "" {
		tgt, ok := graph.Get(name)
		if !ok {
			return target.Target{}, fmt.Errorf("target %q not found in %s", name, p.cfg.Targets.DumpPath)
		}
		return tgt, nil
	}

	candidates := graph.FilterKinds(p.cfg.Targets.Kinds)
	if len(candidates) == 0 {
		return p.syntheticTarget(), nil
	}
	return candidates[0], nil
}

func (p *Pipeline) syntheticTarget() target.Target {
	name := p.cfg.Docc.Catalog
	if name != "" {
		name = filepath.Base(name)
		name = name[:len(name)-len(filepath.Ext(name))]
	}
	if name == "" {
		name = "Documentation"
	}
	return target.Target{Name: name, Kind: "library"}
}
