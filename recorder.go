package scopedstats

import (
	"context"
	"sync"

	"github.com/ygrebnov/errorc"
)

// DurationKey is the metric key under which every scope stamps its own
// wall-clock duration, in seconds. It is written with overwrite
// semantics: one value per scope, not additive across repeated writes
// within the scope.
const DurationKey = "total_recording_duration"

// Recorder accumulates statistics from recording scopes. Each call to
// Record opens a private scope; when the scope finishes, its data is
// folded into the Recorder's permanent result store and into the
// enclosing scope, if one is active on the context. The permanent store
// outlives scopes and is only discarded with the Recorder itself.
//
// A Recorder is safe for concurrent use: scopes opened from different
// goroutines never see each other's in-flight data, and concurrent scope
// exits never lose updates to each other.
type Recorder struct {
	cfg config

	mu          sync.Mutex
	result      *collector
	hasRecorded bool
}

// FinishFunc closes a recording scope. It must be called on every exit
// path, typically via defer, and runs its bookkeeping exactly once;
// later calls are no-ops. It never fails.
type FinishFunc func()

// NewRecorder returns a Recorder with an empty permanent result store.
func NewRecorder(opts ...Option) (*Recorder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			return nil, errorc.With(ErrInvalidConfig, errorc.String("", "nil option"))
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return &Recorder{cfg: cfg, result: newCollector()}, nil
}

// Record opens a recording scope on ctx. The returned context carries the
// scope's collector as the ambient target for Increment, Set, and Timed
// wrappers; pass it to the code being measured. The returned FinishFunc
// closes the scope:
//
//	ctx, finish := rec.Record(ctx)
//	defer finish()
//
// On finish, the scope stamps its wall-clock duration under DurationKey,
// merges its data into the Recorder's permanent store and into the
// enclosing scope (if ctx already carried one), and retires itself: later
// instrumentation calls on the scope context fall through to the
// enclosing scope. Finish runs unconditionally on panic paths when
// deferred, so abnormal exits still account their data.
func (r *Recorder) Record(ctx context.Context) (context.Context, FinishFunc) {
	parent := collectorFrom(ctx)
	c := newCollector()
	scopeCtx := withCollector(ctx, c)
	frame, _ := scopeCtx.Value(scopeKey{}).(*scopeFrame)
	start := r.cfg.now()

	var once sync.Once
	finish := func() {
		once.Do(func() {
			c.set(DurationKey, emptySignature, r.cfg.now().Sub(start).Seconds())
			frame.closed.Store(true)

			r.mu.Lock()
			c.mergeInto(r.result)
			r.hasRecorded = true
			r.mu.Unlock()

			if parent != nil {
				c.mergeInto(parent)
			}
			if r.cfg.provider != nil {
				publish(r.cfg.provider, c)
			}
		})
	}
	return scopeCtx, finish
}

// Result returns the Recorder's accumulated data as a flat metric key ->
// total mapping, summed across tag signatures. WithFilter restricts the
// summation to matching signatures; RequireRecording turns the
// never-recorded case into ErrNoRecording instead of an empty map.
func (r *Recorder) Result(opts ...ResultOption) (map[string]float64, error) {
	var rc resultConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&rc)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rc.require && !r.hasRecorded {
		return nil, ErrNoRecording
	}
	return r.result.stats(rc.filter), nil
}

// HasRecorded reports whether at least one scope has completed on the
// recorder.
func (r *Recorder) HasRecorded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasRecorded
}
