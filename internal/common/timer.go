// Package common provides small shared utilities.
package common

import (
	"fmt"
	"time"
)

// Timer measures the wall-clock duration of one pipeline stage.
type Timer struct {
	name     string
	start    time.Time
	duration time.Duration
}

// StartTimer begins timing a named stage.
func StartTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop freezes the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (valid after Stop).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the stage name.
func (t *Timer) Name() string {
	return t.name
}

func (t *Timer) String() string {
	if t.name == "" {
		return t.duration.String()
	}
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}
