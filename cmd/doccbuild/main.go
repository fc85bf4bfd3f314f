package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/doccbuild/internal/build"
	"git.home.luguber.info/inful/doccbuild/internal/cache"
	"git.home.luguber.info/inful/doccbuild/internal/config"
	"git.home.luguber.info/inful/doccbuild/internal/daemon"
	"git.home.luguber.info/inful/doccbuild/internal/docc"
	"git.home.luguber.info/inful/doccbuild/internal/events"
	"git.home.luguber.info/inful/doccbuild/internal/logfields"
	"git.home.luguber.info/inful/doccbuild/internal/metrics"
	"git.home.luguber.info/inful/doccbuild/internal/target"
	"git.home.luguber.info/inful/doccbuild/internal/version"
	"git.home.luguber.info/inful/doccbuild/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"doccbuild.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Convert struct {
		Target string   `short:"t" help:"Documentation target to build (defaults to first matching target)"`
		Args   []string `arg:"" optional:"" passthrough:"" help:"Extra flags passed through to docc"`
	} `cmd:"" help:"Extract snippets and run docc convert on the catalog"`

	Preview struct {
		Args []string `arg:"" optional:"" passthrough:"" help:"Extra flags passed through to docc"`
	} `cmd:"" help:"Extract snippets and run docc preview with live reload"`

	Snippets struct{} `cmd:"" help:"Extract snippets into Markdown pages without invoking docc"`

	Targets struct {
		Name string `arg:"" optional:"" help:"Print this target and its transitive dependencies only"`
	} `cmd:"" help:"List documentation targets from the target dump"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct {
		MetricsListen string `help:"Override the metrics listen address"`
	} `cmd:"" help:"Rebuild documentation continuously as snippet sources change"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	var err error
	switch ctx.Command() {
	case "convert", "convert <args>":
		err = runConvert(CLI.Convert.Target, CLI.Convert.Args)
	case "preview", "preview <args>":
		err = runPreview(CLI.Preview.Args)
	case "snippets":
		err = runSnippets()
	case "targets", "targets <name>":
		err = runTargets(CLI.Targets.Name)
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "daemon":
		err = runDaemon(CLI.Daemon.MetricsListen)
	case "version":
		fmt.Printf("doccbuild %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	}

	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Logging, CLI.Verbose)
	return cfg, nil
}

// openStore opens the extraction cache when enabled. A broken cache degrades
// to full re-extraction instead of failing the build.
func openStore(cfg *config.Config) *cache.Store {
	if !cfg.Cache.Enabled {
		return nil
	}
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		slog.Warn("Extraction cache unavailable, extracting everything",
			logfields.Path(cfg.Cache.Path), logfields.Error(err))
		return nil
	}
	return store
}

func runConvert(targetName string, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, err := docc.NewRunner(cfg.Docc.Path)
	if err != nil {
		return err
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		slog.Warn("Build events disabled", logfields.Error(err))
	}
	defer publisher.Close()

	pipeline := build.NewPipeline(cfg, build.Options{
		Store:     store,
		Runner:    runner,
		Publisher: publisher,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, err = pipeline.Convert(ctx, targetName, args)
	return err
}

func runPreview(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, err := docc.NewRunner(cfg.Docc.Path)
	if err != nil {
		return err
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	// Preview builds are throwaway; stage pages in an ephemeral workspace
	// instead of the configured render directory.
	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up preview workspace", logfields.Error(err))
		}
	}()
	staging, err := ws.CreateSubdir("snippets")
	if err != nil {
		return err
	}
	cfg.Render.Output = staging

	pipeline := build.NewPipeline(cfg, build.Options{Store: store})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := pipeline.Extract(ctx); err != nil {
		return err
	}

	previewArgs := docc.Arguments{"preview"}
	if cfg.Docc.Catalog != "" {
		previewArgs = append(previewArgs, cfg.Docc.Catalog)
	}
	previewArgs = append(previewArgs, args...)
	previewArgs = append(previewArgs, cfg.Docc.ExtraFlags...)
	return runner.Run(ctx, previewArgs)
}

func runSnippets() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	pipeline := build.NewPipeline(cfg, build.Options{Store: store})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := pipeline.Extract(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %d snippet pages (%d from cache, %d failed) to %s\n",
		result.Total()-result.Failed, result.Cached, result.Failed, cfg.Render.Output)
	return nil
}

func runTargets(name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	graph, err := target.Load(cfg.Targets.DumpPath)
	if err != nil {
		return fmt.Errorf("load target dump: %w", err)
	}

	var targets []target.Target
	if name != "" {
		targets = graph.Closure(name)
		if len(targets) == 0 {
			return fmt.Errorf("target %q not found in %s", name, cfg.Targets.DumpPath)
		}
	} else {
		targets = graph.FilterKinds(cfg.Targets.Kinds)
	}

	for _, tgt := range targets {
		if len(tgt.Dependencies) > 0 {
			fmt.Printf("%s (%s) -> %v\n", tgt.Name, tgt.Kind, tgt.Dependencies)
			continue
		}
		fmt.Printf("%s (%s)\n", tgt.Name, tgt.Kind)
	}
	return nil
}

func runInit(configPath string, force bool) error {
	config.SetupLogging(config.LoggingConfig{}, CLI.Verbose)
	slog.Info("Initializing configuration", logfields.Path(configPath))
	return config.Init(configPath, force)
}

func runDaemon(metricsListen string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if metricsListen != "" {
		cfg.Daemon.MetricsListen = metricsListen
	}

	runner, err := docc.NewRunner(cfg.Docc.Path)
	if err != nil {
		return err
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		slog.Warn("Build events disabled", logfields.Error(err))
	}
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	pipeline := build.NewPipeline(cfg, build.Options{
		Store:     store,
		Runner:    runner,
		Recorder:  recorder,
		Publisher: publisher,
	})

	d, err := daemon.New(cfg, pipeline, metrics.HTTPHandler(registry))
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return d.Run(ctx)
}
