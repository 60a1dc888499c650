// Package registry keeps the process-wide, name -> constructor map the
// stage contract describes (spec §4.1, §9 "Concurrency safety of the
// registry"). It is populated once at startup and only read thereafter;
// the registry itself does not enforce this, and its RWMutex keeps later
// Register calls safe.
package registry

import (
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/logger"
	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

// Constructor builds a Stage instance from a spec's options (every key of
// the stage spec except "type"). Constructors validate their own options
// and return a BadStageConfigError-worthy error on failure; the registry
// wraps that error with monitor/stage-index context.
type Constructor func(opts map[string]any) (stage.Stage, error)

// Registration binds a stage's introspection metadata to its constructor.
type Registration struct {
	Metadata stage.Metadata
	New      Constructor
}

// Registry is the process-wide stage-type -> constructor map.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
	log     *logger.Logger
}

// New returns an empty registry ready for Register calls at startup.
func New(log *logger.Logger) *Registry {
	return &Registry{entries: make(map[string]Registration), log: log}
}

// Register adds a stage type. Re-registering the same name replaces the
// prior entry, which is convenient for tests; the process registers its
// stages once at startup and does not call Register afterwards.
func (r *Registry) Register(reg Registration) error {
	if err := reg.Metadata.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[reg.Metadata.Name] = reg
	return nil
}

// Known reports whether a stage type is registered; used by
// monitor.Validate to reject unknown types at create/update time.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Metadata returns every registered stage's introspection metadata,
// sorted by name, for GET /api/stages.
func (r *Registry) Metadata() []stage.Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]stage.Metadata, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg.Metadata)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsNetworkStage reports whether a registered type declares itself a
// network stage, used by the executor's structural pre-flight check.
func (r *Registry) IsNetworkStage(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return ok && reg.Metadata.IsNetworkStage
}

// Construct builds a stage instance from one stage spec of a monitor's
// pipeline, per §4.1's three-step construction algorithm.
func (r *Registry) Construct(monitorID string, index int, spec monitor.StageSpec) (stage.Stage, error) {
	name := spec.Type()
	r.mu.RLock()
	reg, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, uperrors.NewUnknownStageError(monitorID, name)
	}

	opts := make(map[string]any, len(spec))
	for k, v := range spec {
		if k == "type" {
			continue
		}
		opts[k] = v
	}

	r.warnUnknownKeys(name, reg, opts)

	s, err := reg.New(opts)
	if err != nil {
		return nil, uperrors.NewBadStageConfigError(monitorID, index, name, err)
	}
	return s, nil
}

// warnUnknownKeys logs (but does not reject) stage-spec keys the stage's
// declared Options don't recognize, per §4.1 step 2: "Unknown keys are
// tolerated (forward-compat) but logged."
func (r *Registry) warnUnknownKeys(stageType string, reg Registration, opts map[string]any) {
	if r.log == nil {
		return
	}
	known := make(map[string]struct{}, len(reg.Metadata.Options))
	for _, opt := range reg.Metadata.Options {
		known[opt.Name] = struct{}{}
	}
	for k := range opts {
		if _, ok := known[k]; !ok {
			r.log.With(map[string]any{"stage_type": stageType, "option": k}).Warn("unrecognized stage option")
		}
	}
}
