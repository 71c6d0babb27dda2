package types

import (
	"fmt"
	"time"
)

// Stage is one timed step of an analysis.
type Stage struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
}

// Trace records what an analysis did. It is returned next to the numeric
// result instead of being printed.
type Trace struct {
	Method Method  `json:"method"`
	Stages []Stage `json:"stages"`
}

// Record appends a stage that started at start. A nil trace ignores the call.
func (t *Trace) Record(name string, start time.Time, format string, args ...any) {
	if t == nil {
		return
	}
	t.Stages = append(t.Stages, Stage{
		Name:     name,
		Duration: time.Since(start),
		Detail:   fmt.Sprintf(format, args...),
	})
}

// Total returns the summed duration of all stages.
func (t *Trace) Total() time.Duration {
	if t == nil {
		return 0
	}
	var d time.Duration
	for _, s := range t.Stages {
		d += s.Duration
	}
	return d
}
