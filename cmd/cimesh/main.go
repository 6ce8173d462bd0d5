// cimesh runs a pipeline definition against trigger events.
//
// Single-shot mode (default): builds one trigger event from the --event,
// --branch and --commit flags, submits it and prints the per-cell outcomes.
// The exit code is 0 only when the aggregate verdict is succeeded.
//
// Watch mode (--watch): consumes trigger event files from a spool directory
// and submits each accepted event, running until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hupe1980/cimesh"
	"github.com/hupe1980/cimesh/config"
	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/engine"
	"github.com/hupe1980/cimesh/logging"
	"github.com/hupe1980/cimesh/pipeline"
	"github.com/hupe1980/cimesh/provision"
	"github.com/hupe1980/cimesh/trigger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   string
		pipelinePath string
		eventKind    string
		branch       string
		commit       string
		watch        bool
		logLevel     string
	)

	flagSet := pflag.NewFlagSet("cimesh", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the TOML config file")
	flagSet.StringVar(&pipelinePath, "pipeline", "pipeline.yaml", "path to the pipeline definition file")
	flagSet.StringVar(&eventKind, "event", "push", "trigger event kind (push or pull_request)")
	flagSet.StringVar(&branch, "branch", "main", "target branch of the trigger event")
	flagSet.StringVar(&commit, "commit", "", "commit identifier carried by the trigger event")
	flagSet.BoolVar(&watch, "watch", false, "watch the events spool directory instead of submitting once")
	flagSet.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger := buildLogger(cfg.Log)

	p, err := pipeline.Load(pipelinePath)
	if err != nil {
		return err
	}
	policy, err := p.Policy()
	if err != nil {
		return err
	}
	defs, err := p.Definitions()
	if err != nil {
		return err
	}

	mesh := cimesh.New(func(o *cimesh.Options) {
		o.EngineConfig = engine.Config{
			MaxConcurrentJobs: cfg.MaxConcurrentJobsOrDefault(),
			EventBufferSize:   engine.DefaultConfig.EventBufferSize,
			StepTimeout:       cfg.StepTimeoutOrDefault(),
		}
		o.TriggerPolicy = policy
		o.Provisioner = provision.NewLocal(func(po *provision.Options) {
			if cfg.WorkspaceRoot != "" {
				po.Root = cfg.WorkspaceRoot
			}
			po.Logger = logger
		})
		o.Logger = logger
	})
	for _, def := range defs {
		mesh.RegisterJob(def)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watch {
		if cfg.EventsDir == "" {
			return fmt.Errorf("watch mode requires events_dir in config or CIMESH_EVENTS_DIR")
		}
		return watchSpool(ctx, mesh, cfg.EventsDir, logger)
	}

	event := core.TriggerEvent{Kind: core.EventKind(eventKind), Branch: branch, Commit: commit}
	return submitOnce(ctx, mesh, event)
}

func buildLogger(lc config.LogConfig) logging.Logger {
	return logging.NewSlogLogger(logging.ParseLevel(lc.Level), lc.Format, false)
}

func submitOnce(ctx context.Context, mesh *cimesh.CIMesh, event core.TriggerEvent) error {
	result, err := mesh.SubmitSync(ctx, event)
	if err != nil {
		return err
	}
	printRun(result)
	if result.Status != core.StatusSucceeded {
		return fmt.Errorf("run %s finished with status %s", result.ID, result.Status)
	}
	return nil
}

func watchSpool(ctx context.Context, mesh *cimesh.CIMesh, dir string, logger logging.Logger) error {
	watcher, err := trigger.NewWatcher(dir, func(o *trigger.WatcherOptions) {
		o.Logger = logger
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	go watcher.Start(ctx)
	fmt.Printf("watching %s for trigger events\n", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			result, err := mesh.SubmitSync(ctx, event)
			if err != nil {
				logger.Warn("event skipped kind=%s branch=%s: %v", event.Kind, event.Branch, err)
				continue
			}
			printRun(result)
		}
	}
}

func printRun(r *core.PipelineRun) {
	fmt.Printf("run %s [%s] trigger=%s branch=%s\n", r.ID, r.Status, r.Trigger.Kind, r.Trigger.Branch)
	for _, o := range r.Outcomes {
		fmt.Printf("  %-45s %-16s %s\n", o.Cell, o.Status, o.Duration().Round(time.Millisecond))
		if o.Detail != "" {
			fmt.Printf("    %s\n", o.Detail)
		}
	}
}
