package deploy

import (
	"context"
	"errors"
	"time"

	"github.com/cardledger/cardledger/internal"
	"github.com/cardledger/cardledger/pkg/models"
)

var log = internal.GetLogger()

// Step is a single deployment action. Steps are executed strictly in order.
type Step struct {
	Name string
	// Optional steps have their failure logged and suppressed. They never
	// affect the outcome of the pipeline.
	Optional bool
	Run      func(ctx context.Context) error
}

// Runner executes a fixed sequence of steps with fail-fast semantics.
type Runner struct {
	steps       []Step
	stepTimeout time.Duration
}

// NewRunner returns a Runner for the given steps. stepTimeout bounds each
// individual step; 0 disables the per-step timeout.
func NewRunner(steps []Step, stepTimeout time.Duration) *Runner {
	return &Runner{
		steps:       steps,
		stepTimeout: stepTimeout,
	}
}

// Run executes all steps in order. The first failing non-optional step aborts
// the run and no subsequent step is executed.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	for _, step := range r.steps {
		if err := r.runStep(ctx, step); err != nil {
			return err
		}
	}
	log.Infof("all steps completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	if step.Run == nil {
		return models.NewStepFailedError(step.Name, errors.New("step has no action"))
	}

	stepCtx := ctx
	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}

	log.Infof("running step: %s", step.Name)
	err := step.Run(stepCtx)
	if err == nil {
		log.Infof("step completed: %s", step.Name)
		return nil
	}

	if step.Optional {
		log.Warnf("step %s failed, continuing: %v", step.Name, err)
		return nil
	}

	return models.NewStepFailedError(step.Name, err)
}
