// Package dispatch runs installation scripts step by step.
package dispatch

import (
	"context"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host"
	"github.com/fgeck/hostprep/internal/services/progress"
	"github.com/rs/zerolog"
)

// Service defines the interface for script execution.
type Service interface {
	Run(ctx context.Context, h host.Host, steps []models.Step) (*models.ScriptResult, error)
}

// Impl implements the dispatch Service interface.
type Impl struct {
	printer *progress.Printer
	logger  zerolog.Logger
}

// New creates a new dispatch service.
func New(logger zerolog.Logger, printer *progress.Printer) *Impl {
	return &Impl{
		printer: printer,
		logger:  logger,
	}
}

// Run executes steps in order. A failing required step stops the script and is
// returned as a *StepError; failing optional steps are reported and skipped.
// The result holds every step that was attempted, including the failing one.
func (s *Impl) Run(ctx context.Context, h host.Host, steps []models.Step) (*models.ScriptResult, error) {
	result := &models.ScriptResult{}

	for _, step := range steps {
		s.printer.Step(step.Description)

		cmdResult, err := h.Run(ctx, step.Command, step.Elevate)
		outcome := models.StepOutcome{Step: step, Result: cmdResult, Err: err}
		result.Executed = append(result.Executed, outcome)

		if cmdResult != nil {
			s.printer.Output(cmdResult.Stdout)
		}

		if outcome.Succeeded() {
			s.logger.Debug().Str("step", step.Description).Msg("step succeeded")
			continue
		}

		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		s.report(outcome)

		if step.Required() {
			s.printer.Failure(step.Description + " failed")
			return result, &StepError{Step: step, Result: cmdResult, Err: err}
		}
		s.printer.Warn(step.Description + " failed, continuing")
	}

	return result, nil
}

func (s *Impl) report(o models.StepOutcome) {
	event := s.logger.Warn().
		Str("step", o.Step.Description).
		Str("severity", o.Step.Severity.String()).
		Str("command", o.Step.Command)
	if o.Err != nil {
		event = event.Err(o.Err)
	}
	if o.Result != nil {
		event = event.Int("exit_code", o.Result.ExitCode)
		s.printer.ErrorOutput(o.Result.Stderr)
	}
	event.Msg("step failed")
}
