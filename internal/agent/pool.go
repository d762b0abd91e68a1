package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mosaic/internal/discovery"
	"mosaic/internal/llm"
)

var (
	ErrUnknownMode  = errors.New("unknown agent mode")
	ErrUnknownModel = errors.New("unknown model")
)

// RunnerFactory builds the runner for a mode. Called once per instance
// creation, again on recreate.
type RunnerFactory func(modeID string) (Runner, error)

// Instance is one live agent: a runner bound to a backend model. The
// outer mutex serializes configuration changes against in-flight
// generation so a request never observes a half-switched instance;
// stateMu guards the fields alone so reads never wait on a running
// generation.
type Instance struct {
	mu      sync.Mutex
	stateMu sync.Mutex
	modeID  string
	model   string
	runner  Runner
}

func (in *Instance) Model() string {
	in.stateMu.Lock()
	defer in.stateMu.Unlock()
	return in.model
}

func (in *Instance) setModel(model string) {
	in.stateMu.Lock()
	defer in.stateMu.Unlock()
	in.model = model
}

func (in *Instance) setRunner(runner Runner) {
	in.stateMu.Lock()
	defer in.stateMu.Unlock()
	in.runner = runner
}

// Pool lazily creates agent instances per mode and rebinds their
// models on demand.
type Pool struct {
	factory RunnerFactory
	lister  discovery.Lister

	mu        sync.Mutex
	instances map[string]*Instance
	defaults  map[string]string
}

func NewPool(factory RunnerFactory, lister discovery.Lister) *Pool {
	defaults := make(map[string]string)
	for _, mode := range Modes() {
		defaults[mode.ID] = mode.DefaultModel
	}
	return &Pool{
		factory:   factory,
		lister:    lister,
		instances: make(map[string]*Instance),
		defaults:  defaults,
	}
}

// GetOrCreate returns the instance for a mode, creating it with the
// mode's default model on first use.
func (p *Pool) GetOrCreate(modeID string) (*Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if in, ok := p.instances[modeID]; ok {
		return in, nil
	}

	defaultModel, ok := p.defaults[modeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, modeID)
	}

	runner, err := p.factory(modeID)
	if err != nil {
		return nil, fmt.Errorf("create %s instance: %w", modeID, err)
	}

	in := &Instance{modeID: modeID, model: defaultModel, runner: runner}
	p.instances[modeID] = in
	slog.Info("created agent instance", "mode", modeID, "model", defaultModel)
	return in, nil
}

// Configure points a mode's instance at a model. The model is checked
// against discovery: a model the provider definitely does not have is
// rejected, but when discovery itself is down the change is accepted
// with a warning so a dead provider cannot brick reconfiguration.
func (p *Pool) Configure(ctx context.Context, modeID, model string) error {
	if err := p.validateModel(ctx, model); err != nil {
		return err
	}

	in, err := p.GetOrCreate(modeID)
	if err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.Model() == model {
		return nil
	}

	// The running instance keeps its runner and whatever it caches;
	// only the model binding changes. Recreate is the teardown path.
	slog.Info("reconfigured agent instance", "mode", modeID, "from", in.Model(), "to", model)
	in.setModel(model)
	return nil
}

// Recreate drops a mode's runner and builds a fresh one, keeping the
// current model binding. It instantiates the mode if it never ran.
func (p *Pool) Recreate(modeID string) error {
	in, err := p.GetOrCreate(modeID)
	if err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	runner, err := p.factory(modeID)
	if err != nil {
		return fmt.Errorf("recreate %s instance: %w", modeID, err)
	}

	slog.Info("recreated agent instance", "mode", modeID, "model", in.Model())
	in.setRunner(runner)
	return nil
}

func (p *Pool) validateModel(ctx context.Context, model string) error {
	models, err := p.lister.ListModels(ctx)
	if err != nil {
		slog.Warn("model validation skipped, discovery unavailable", "model", model, "error", err)
		return nil
	}
	for _, m := range models {
		if m.Name == model {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// Dispatch runs one generation on a mode's instance. When the request
// names a model other than the instance's current one, the instance is
// reconfigured first; the instance lock is held across the switch and
// the generation so concurrent requests serialize cleanly.
func (p *Pool) Dispatch(ctx context.Context, modeID, model, sessionID string, messages []llm.Message, emit func(Event)) (*llm.Completion, error) {
	in, err := p.GetOrCreate(modeID)
	if err != nil {
		return nil, err
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if model != "" && model != in.Model() {
		if err := p.validateModel(ctx, model); err != nil {
			return nil, err
		}
		slog.Info("reconfigured agent instance", "mode", modeID, "from", in.Model(), "to", model)
		in.setModel(model)
	}

	return in.runner.Generate(ctx, in.Model(), sessionID, messages, emit)
}

// Snapshot reports the current model per instantiated mode.
func (p *Pool) Snapshot() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]string, len(p.instances))
	for id, in := range p.instances {
		out[id] = in.Model()
	}
	return out
}
