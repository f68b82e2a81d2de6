// Package loadgen drives a cache through fixed workload phases and reports
// how long each phase takes.
package loadgen

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Belphemur/ubercache/internal/metrics"
)

// Target is the cache surface the phases exercise. *cache.Cache[string, any]
// satisfies it.
type Target interface {
	Set(key string, value any) error
	Get(key string) (any, bool, error)
	Delete(key string)
	Clear()
	Count() int
	Size() int64
}

// Record is the structured value stored by the object phases.
type Record struct {
	A string
	B int
}

// Phase names, in run order.
const (
	PhaseSetObject           = "set_object"
	PhaseSetPrimitive        = "set_primitive"
	PhaseGetEmpty            = "get_empty"
	PhaseGetPopulated        = "get_populated"
	PhaseGetPopulatedComplex = "get_populated_complex"
	PhaseDelete              = "delete"
)

// Result summarises one phase. Duration excludes setup.
type Result struct {
	Phase      string
	Operations int
	Errors     int
	Hits       int
	Duration   time.Duration
}

type phase struct {
	name  string
	setup func(r *Runner) error
	run   func(r *Runner, key string, i int) (hit bool, err error)
}

var phases = []phase{
	{
		name: PhaseSetObject,
		run: func(r *Runner, key string, i int) (bool, error) {
			return false, r.target.Set(key, Record{A: "Hello", B: i})
		},
	},
	{
		name: PhaseSetPrimitive,
		run: func(r *Runner, key string, i int) (bool, error) {
			return false, r.target.Set(key, i)
		},
	},
	{
		name: PhaseGetEmpty,
		run:  get,
	},
	{
		name:  PhaseGetPopulated,
		setup: func(r *Runner) error { return r.populate(false) },
		run:   get,
	},
	{
		name:  PhaseGetPopulatedComplex,
		setup: func(r *Runner) error { return r.populate(true) },
		run:   get,
	},
	{
		name:  PhaseDelete,
		setup: func(r *Runner) error { return r.populate(false) },
		run: func(r *Runner, key string, _ int) (bool, error) {
			r.target.Delete(key)
			return false, nil
		},
	},
}

func get(r *Runner, key string, _ int) (bool, error) {
	_, ok, err := r.target.Get(key)
	return ok, err
}

// Runner executes every phase against one target, clearing it between
// phases.
type Runner struct {
	target     Target
	operations int
	logger     zerolog.Logger
	keys       []string
}

// NewRunner creates a runner issuing operations calls per phase.
func NewRunner(target Target, operations int, logger zerolog.Logger) (*Runner, error) {
	if operations <= 0 {
		return nil, fmt.Errorf("loadgen: operations must be positive, got %d", operations)
	}
	keys := make([]string, operations)
	for i := range keys {
		keys[i] = "key" + strconv.Itoa(i)
	}
	return &Runner{
		target:     target,
		operations: operations,
		logger:     logger.With().Str("component", "loadgen").Logger(),
		keys:       keys,
	}, nil
}

// Run executes the phases in order. It stops early when ctx is cancelled
// and returns the results gathered so far with ctx's error.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(phases))
	start := time.Now()

	r.logger.Info().Int("operations", r.operations).Msg("Starting load run")
	for _, p := range phases {
		res, err := r.runPhase(ctx, p)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	r.target.Clear()

	r.logger.Info().Dur("total", time.Since(start)).Msg("Load run finished")
	return results, nil
}

func (r *Runner) runPhase(ctx context.Context, p phase) (Result, error) {
	r.target.Clear()
	if p.setup != nil {
		if err := p.setup(r); err != nil {
			return Result{}, fmt.Errorf("loadgen: %s setup: %w", p.name, err)
		}
	}

	res := Result{Phase: p.name}
	started := time.Now()
	for i, key := range r.keys {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		hit, err := p.run(r, key, i)
		res.Operations++
		if hit {
			res.Hits++
		}
		if err != nil {
			res.Errors++
			if res.Errors == 1 {
				r.logger.Warn().Err(err).Str("phase", p.name).Str("key", key).Msg("Cache operation failed")
			}
		}
	}
	res.Duration = time.Since(started)

	metrics.LoadOperationsTotal.WithLabelValues(p.name).Add(float64(res.Operations))
	metrics.LoadPhaseDurationSeconds.WithLabelValues(p.name).Set(res.Duration.Seconds())
	if res.Errors > 0 {
		metrics.LoadErrorsTotal.WithLabelValues(p.name).Add(float64(res.Errors))
	}

	r.logger.Info().
		Str("phase", p.name).
		Dur("duration", res.Duration).
		Int("operations", res.Operations).
		Int("hits", res.Hits).
		Int("errors", res.Errors).
		Int("entries", r.target.Count()).
		Int64("weight", r.target.Size()).
		Msg("Phase completed")
	return res, nil
}

func (r *Runner) populate(structured bool) error {
	for i, key := range r.keys {
		var value any = i
		if structured {
			value = Record{A: "Hello", B: i}
		}
		if err := r.target.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}
