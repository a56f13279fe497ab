package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// ErrPrepareInProgress is returned when Prepare is called while a preparation
// run is already active.
var ErrPrepareInProgress = errors.New("preparation already in progress")

// Prober is satisfied by every dependency that can report its health:
// cache backends and upstream clients.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// Preparer is satisfied by dependencies that need one-off setup before the
// service is ready, e.g. creating the Postgres cache table.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Component names a dependency. Preparer is optional; components without one
// are prepared by probing them.
type Component struct {
	Name     string
	Prober   Prober
	Preparer Preparer
}

// Checker runs preparation phases and health probes across components.
type Checker struct {
	components []Component

	prepareInProgress atomic.Bool
	lastResult        *PrepareResult
	resultMu          sync.RWMutex
}

// New constructs a Checker over the given components.
func New(components ...Component) *Checker {
	return &Checker{components: components}
}

// Prepare runs one phase per component concurrently. A phase failure is
// recorded in the result but does not cancel the other phases. Returns
// ErrPrepareInProgress if a run is already active.
func (c *Checker) Prepare(ctx context.Context) (*PrepareResult, error) {
	if !c.prepareInProgress.CompareAndSwap(false, true) {
		return nil, ErrPrepareInProgress
	}
	defer c.prepareInProgress.Store(false)

	result := &PrepareResult{
		Status: StatusInProgress,
		Phases: make(map[string]PhaseResult, len(c.components)),
	}

	ctx, span := otel.Tracer("mtga-analyzer").Start(ctx, "analyzer.prepare")
	defer span.End()

	slog.InfoContext(ctx, "preparation started", "components", len(c.components))

	// Plain errgroup: one failing phase must not cancel its siblings.
	var g errgroup.Group

	for _, comp := range c.components {
		g.Go(func() error {
			var phase PhaseResult
			switch {
			case comp.Preparer != nil:
				phase = prepareToPhase(comp.Name, comp.Preparer.Prepare(ctx))
			case comp.Prober != nil:
				phase = probeToPhase(comp.Name, comp.Prober.Probe(ctx))
			default:
				phase = PhaseResult{Name: comp.Name, Status: StatusSkipped}
			}
			logPhase(ctx, phase)
			result.Lock()
			result.Phases[comp.Name] = phase
			result.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	result.Status = StatusOK
	for _, phase := range result.Phases {
		if phase.Status == StatusError {
			result.Status = StatusError
			break
		}
	}

	span.SetAttributes(attribute.String("prepare.status", result.Status))
	if result.Status == StatusError {
		span.SetStatus(codes.Error, "one or more preparation phases failed")
		slog.WarnContext(ctx, "preparation completed with errors", "status", result.Status)
	} else {
		span.SetStatus(codes.Ok, "")
		slog.InfoContext(ctx, "preparation completed", "status", result.Status)
	}

	c.resultMu.Lock()
	c.lastResult = result
	c.resultMu.Unlock()

	return result, nil
}

// RunDeepHealth probes every component concurrently and returns a map of
// component name to ProbeResult. Components without a Prober are omitted.
func (c *Checker) RunDeepHealth(ctx context.Context) map[string]ProbeResult {
	results := make(map[string]ProbeResult, len(c.components))
	var mu sync.Mutex
	var g errgroup.Group

	for _, comp := range c.components {
		if comp.Prober == nil {
			continue
		}
		g.Go(func() error {
			probe := comp.Prober.Probe(ctx)
			mu.Lock()
			results[comp.Name] = probe
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// IsPrepareInProgress returns true while a preparation run is active.
func (c *Checker) IsPrepareInProgress() bool {
	return c.prepareInProgress.Load()
}

// IsReady returns true if the last preparation completed with StatusOK.
func (c *Checker) IsReady() bool {
	c.resultMu.RLock()
	defer c.resultMu.RUnlock()
	return c.lastResult != nil && c.lastResult.Status == StatusOK
}

// logPhase emits a trace-correlated log for a phase result.
func logPhase(ctx context.Context, p PhaseResult) {
	switch p.Status {
	case StatusOK:
		slog.InfoContext(ctx, "preparation phase ok", "phase", p.Name)
	case StatusSkipped:
		slog.DebugContext(ctx, "preparation phase skipped", "phase", p.Name)
	default:
		slog.WarnContext(ctx, "preparation phase failed", "phase", p.Name, "error", p.Error)
	}
}

func probeToPhase(name string, p ProbeResult) PhaseResult {
	if p.OK {
		return PhaseResult{Name: name, Status: StatusOK}
	}
	return PhaseResult{Name: name, Status: StatusError, Error: p.Error}
}

func prepareToPhase(name string, err error) PhaseResult {
	if err == nil {
		return PhaseResult{Name: name, Status: StatusOK}
	}
	return PhaseResult{Name: name, Status: StatusError, Error: err.Error()}
}
