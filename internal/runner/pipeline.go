package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/wikibots/internal/model"
)

// Step is one stage of page processing. A step ends processing early by
// returning an error; classification of that error is up to the Runner.
type Step interface {
	// Do executes the step for task.
	Do(ctx context.Context, task *model.Task) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order and stops at the first error.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the logger used for step tracing.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline returns an empty pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps. Steps run in the order they are added.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs the steps for task. Cancellation is checked before each
// step. The returned error names the step that failed.
func (p *Pipeline) Execute(ctx context.Context, task *model.Task) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Debug("executing step", "step", step.Name(), "mid", task.MID())

		if err := step.Do(ctx, task); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}
