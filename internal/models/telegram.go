package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for a provisioning notification.
type TelegramMessage struct {
	Success   bool
	Action    string
	Target    string
	OSID      string
	Family    OSFamily
	StartTime time.Time
	Duration  time.Duration

	StepsRun    int
	StepsFailed int

	// Error info (if failed).
	ErrorMessage string
	FailedStep   string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
