package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyOS(t *testing.T) {
	tests := []struct {
		id   string
		want OSFamily
	}{
		{"ubuntu", FamilyDebian},
		{"debian", FamilyDebian},
		{"amzn", FamilyAmazon},
		{"amazon", FamilyAmazon},
		{"  Ubuntu\n", FamilyDebian},
		{"AMZN", FamilyAmazon},
		{"centos", FamilyUnrecognized},
		{"fedora", FamilyUnrecognized},
		{"ubuntu-core", FamilyUnrecognized},
		{"", FamilyUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyOS(tt.id))
		})
	}
}

func TestTargetConfig_IsRemote(t *testing.T) {
	full := TargetConfig{Host: "10.0.0.5", Username: "ubuntu", KeyPath: "/keys/id.pem", Port: 22}
	assert.True(t, full.IsRemote())

	noHost := full
	noHost.Host = ""
	assert.False(t, noHost.IsRemote())

	noUser := full
	noUser.Username = ""
	assert.False(t, noUser.IsRemote())

	noKey := full
	noKey.KeyPath = ""
	assert.False(t, noKey.IsRemote())

	assert.False(t, TargetConfig{}.IsRemote())
}

func TestCommandResult_Success(t *testing.T) {
	assert.True(t, (&CommandResult{ExitCode: 0}).Success())
	assert.False(t, (&CommandResult{ExitCode: 1}).Success())
	assert.False(t, (&CommandResult{ExitCode: -1}).Success())

	var nilResult *CommandResult
	assert.False(t, nilResult.Success())
}

func TestStepOutcome_Succeeded(t *testing.T) {
	ok := StepOutcome{Result: &CommandResult{ExitCode: 0}}
	assert.True(t, ok.Succeeded())

	failed := StepOutcome{Result: &CommandResult{ExitCode: 100}}
	assert.False(t, failed.Succeeded())

	notRun := StepOutcome{}
	assert.False(t, notRun.Succeeded())
}

func TestScriptResult_Commands(t *testing.T) {
	r := &ScriptResult{Executed: []StepOutcome{
		{Step: Step{Command: "apt update"}},
		{Step: Step{Command: "apt install -y nginx"}},
	}}
	assert.Equal(t, []string{"apt update", "apt install -y nginx"}, r.Commands())

	var empty *ScriptResult
	assert.Nil(t, empty.Commands())
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "required", SeverityRequired.String())
	assert.Equal(t, "optional", SeverityOptional.String())
	assert.True(t, Step{Severity: SeverityRequired}.Required())
	assert.False(t, Step{}.Required())
}
