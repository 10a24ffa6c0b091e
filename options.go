package scopedstats

import (
	"time"

	"github.com/ygrebnov/errorc"
	"github.com/ygrebnov/metrics"
)

// config holds Recorder configuration.
type config struct {
	// now supplies timestamps for scope durations.
	// Default: time.Now (monotonic-clock backed).
	now func() time.Time

	// provider, when non-nil, receives every finished scope's flattened
	// data as instrument updates.
	// Default: nil (no publication).
	provider metrics.Provider
}

func defaultConfig() config {
	return config{now: time.Now}
}

// Option configures a Recorder. Use NewRecorder(opts...) to construct a
// Recorder via options. Invalid option values surface as errors from the
// constructor rather than panics.
type Option func(*config) error

// WithMetrics publishes each finished scope into instruments created on
// provider: duration metrics feed histograms (in seconds), everything
// else feeds monotonic counters.
func WithMetrics(provider metrics.Provider) Option {
	return func(cfg *config) error {
		if provider == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.provider = provider
		return nil
	}
}

// WithNowFunc overrides the clock used to measure scope durations.
// Intended for deterministic tests.
func WithNowFunc(now func() time.Time) Option {
	return func(cfg *config) error {
		if now == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithNowFunc requires a non-nil func"))
		}
		cfg.now = now
		return nil
	}
}

// resultConfig holds per-call Result configuration.
type resultConfig struct {
	filter  []Tag
	require bool
}

// ResultOption configures a single Recorder.Result call.
type ResultOption func(*resultConfig)

// WithFilter restricts the result to samples whose tag signature contains
// every given tag. Keys whose filtered total is not positive are dropped.
func WithFilter(tags ...Tag) ResultOption {
	return func(rc *resultConfig) { rc.filter = dedupeTags(tags) }
}

// RequireRecording makes Result fail with ErrNoRecording if no scope has
// completed on the recorder, instead of silently returning empty data.
func RequireRecording() ResultOption {
	return func(rc *resultConfig) { rc.require = true }
}
