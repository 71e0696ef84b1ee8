package models

import "time"

// Severity decides whether a failing step aborts its script.
type Severity int

// Step severities.
const (
	SeverityOptional Severity = iota
	SeverityRequired
)

func (s Severity) String() string {
	if s == SeverityRequired {
		return "required"
	}
	return "optional"
}

// Step is one command of an installation script.
type Step struct {
	Description string
	Command     string
	Elevate     bool
	Severity    Severity
}

// Required reports whether a failure of the step is fatal.
func (s Step) Required() bool {
	return s.Severity == SeverityRequired
}

// StepOutcome records how a step went.
type StepOutcome struct {
	Step   Step
	Result *CommandResult // nil if the command could not be issued
	Err    error          // transport error, if any
}

// Succeeded reports whether the step ran and exited zero.
func (o StepOutcome) Succeeded() bool {
	return o.Err == nil && o.Result.Success()
}

// ScriptResult holds the outcomes of an executed script, in order.
type ScriptResult struct {
	Executed []StepOutcome
}

// Commands returns the commands that were issued, in order.
func (r *ScriptResult) Commands() []string {
	if r == nil {
		return nil
	}
	cmds := make([]string, 0, len(r.Executed))
	for _, o := range r.Executed {
		cmds = append(cmds, o.Step.Command)
	}
	return cmds
}

// ProvisionResult holds the result of one orchestration.
type ProvisionResult struct {
	Action     string
	Target     string
	Info       HostInfo
	Steps      []StepOutcome
	FailedStep string
	Duration   time.Duration
	Error      error
}
