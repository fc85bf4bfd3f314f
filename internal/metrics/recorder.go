package metrics

import "time"

// Recorder defines observability hooks for extraction and build metrics.
// Implementations may forward to Prometheus; all methods must be safe on the
// NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveExtractDuration(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	ObserveDoccDuration(action string, d time.Duration)
	IncSnippetResult(result string) // result: extracted|cached|failed
	IncBuildOutcome(outcome string) // outcome: success|failed|canceled
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveExtractDuration(time.Duration)      {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) ObserveDoccDuration(string, time.Duration) {}
func (NoopRecorder) IncSnippetResult(string)                   {}
func (NoopRecorder) IncBuildOutcome(string)                    {}
