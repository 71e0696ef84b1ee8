package dispatch

import (
	"errors"
	"fmt"

	"github.com/fgeck/hostprep/internal/models"
)

// ErrRequiredStepFailed is matched by every StepError.
var ErrRequiredStepFailed = errors.New("required step failed")

// StepError reports the required step that aborted a script.
type StepError struct {
	Step   models.Step
	Result *models.CommandResult
	Err    error // transport error, if the command never reported an exit status
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Step.Description, e.Err)
	}
	if e.Result == nil {
		return fmt.Sprintf("%s: no result", e.Step.Description)
	}
	return fmt.Sprintf("%s: exit status %d", e.Step.Description, e.Result.ExitCode)
}

func (e *StepError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRequiredStepFailed, e.Err}
	}
	return []error{ErrRequiredStepFailed}
}
