package tool

import (
	"context"
	"time"
)

// CurrentTime reports the current time of the agent's world. The clock is
// injectable so sessions running on a virtual clock report consistently.
type CurrentTime struct {
	now func() time.Time
}

// CurrentTimeOption customizes the CurrentTime tool.
type CurrentTimeOption func(*CurrentTime)

// WithClock overrides the time source.
func WithClock(now func() time.Time) CurrentTimeOption {
	return func(t *CurrentTime) { t.now = now }
}

// NewCurrentTime creates the time tool, defaulting to the wall clock.
func NewCurrentTime(opts ...CurrentTimeOption) *CurrentTime {
	t := &CurrentTime{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *CurrentTime) Name() string { return "get_current_time" }

func (t *CurrentTime) Description() string {
	return "Get the current date and time."
}

func (t *CurrentTime) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *CurrentTime) Execute(_ context.Context, _ map[string]any) (Result, error) {
	return Result{Content: t.now().Format("2006-01-02 15:04:05")}, nil
}
