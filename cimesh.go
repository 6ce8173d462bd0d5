// Package cimesh provides a high-level façade over the core Engine and
// service abstractions (triggers, provisioning, run archive & logging)
// enabling rapid construction of build/test pipelines. Most applications
// interact with this package by:
//  1. Creating a CIMesh via New() (optionally overriding default local services)
//  2. Registering job definitions (directly or from a pipeline file)
//  3. Submitting trigger events asynchronously (Submit) or synchronously (SubmitSync)
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable run store and a
// structured logger.
package cimesh

import (
	"context"

	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/engine"
	"github.com/hupe1980/cimesh/logging"
	"github.com/hupe1980/cimesh/pipeline"
	"github.com/hupe1980/cimesh/provision"
	"github.com/hupe1980/cimesh/run"
	"github.com/hupe1980/cimesh/trigger"
)

// Options configures the CIMesh instance.
type Options struct {
	// Engine configuration (concurrency pool, event buffers, step timeout)
	EngineConfig engine.Config

	// TriggerPolicy gates incoming events. Defaults to push/pull_request on
	// main.
	TriggerPolicy trigger.Policy

	// Provisioner materializes environments (defaults to the local workspace
	// provisioner if not provided)
	Provisioner core.Provisioner

	// RunStore archives completed runs (defaults to in-memory)
	RunStore core.RunStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Hooks are engine lifecycle extension points.
	Hooks []engine.Hook
}

// CIMesh is the high-level façade aggregating the underlying engine and
// services.
type CIMesh struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new CIMesh instance with optional overrides. Any unset
// service is initialized with a local implementation.
func New(optFns ...func(o *Options)) *CIMesh {
	opts := Options{
		EngineConfig:  engine.DefaultConfig,
		TriggerPolicy: trigger.DefaultPolicy,
		Provisioner:   provision.NewLocal(),
		RunStore:      run.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Router = trigger.NewRouter(opts.TriggerPolicy)
		o.Provisioner = opts.Provisioner
		o.RunStore = opts.RunStore
		o.Logger = opts.Logger
		o.Hooks = opts.Hooks
	})

	return &CIMesh{opts: opts, engine: e}
}

// RegisterJob adds a job definition to the underlying engine.
func (m *CIMesh) RegisterJob(def core.JobDefinition) { m.engine.RegisterJob(def) }

// LoadPipeline reads a pipeline definition file and registers its jobs. The
// file's trigger policy is ignored here; pass it to New via TriggerPolicy
// when the file should gate events too.
func (m *CIMesh) LoadPipeline(path string) error {
	p, err := pipeline.Load(path)
	if err != nil {
		return err
	}
	defs, err := p.Definitions()
	if err != nil {
		return err
	}
	for _, def := range defs {
		m.engine.RegisterJob(def)
	}
	return nil
}

// Submit starts an asynchronous pipeline run returning the run ID plus event
// & error channels. A declined trigger returns core.ErrTriggerRejected.
func (m *CIMesh) Submit(ctx context.Context, event core.TriggerEvent) (string, <-chan core.Event, <-chan error, error) {
	return m.engine.Submit(ctx, event)
}

// SubmitSync is a synchronous helper that drains the async channels and
// returns the archived run. A failed run is not an error; inspect Status.
func (m *CIMesh) SubmitSync(ctx context.Context, event core.TriggerEvent) (*core.PipelineRun, error) {
	return m.engine.SubmitSync(ctx, event)
}

// Cancel cancels an in-flight run by ID.
func (m *CIMesh) Cancel(runID string) error { return m.engine.Cancel(runID) }

// Runs lists the archived pipeline runs, oldest first.
func (m *CIMesh) Runs() []*core.PipelineRun { return m.engine.Store().List() }

// Run fetches one archived pipeline run by ID.
func (m *CIMesh) Run(runID string) (*core.PipelineRun, error) {
	return m.engine.Store().Get(runID)
}
