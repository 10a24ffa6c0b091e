// Package scopedstats provides a lightweight, in-process statistics
// accumulator: counters and timings recorded during a dynamically-scoped
// recording block, dimensioned by tags, with nested scopes folding into
// their enclosing scopes.
//
// Usage
//
//	rec, _ := scopedstats.NewRecorder()
//	ctx, finish := rec.Record(context.Background())
//	defer finish()
//
//	scopedstats.Increment(ctx, "requests", scopedstats.String("env", "prod"))
//
//	result, _ := rec.Result()
//
// The context returned by Record carries the scope's private collector.
// Increment, IncrementBy, Set, and Timed wrappers write to whatever scope
// is active on the context they receive; with no active scope they are
// silent no-ops, so instrumentation is always safe to leave in place.
//
// Scoping
//
// Scopes nest: opening a scope on a context that already carries one
// makes the new scope the ambient target, and finishing it folds its
// data both into its Recorder and into the enclosing scope. Independent
// goroutines recording on separate contexts never observe each other's
// in-flight data. Each finished scope also stamps its own wall-clock
// duration under DurationKey.
//
// Reading results
//
// Recorder.Result flattens the permanent store into metric key -> total,
// summing across tag signatures. WithFilter(tags...) restricts the sum
// to samples whose signature contains every given tag; RequireRecording()
// turns "nothing ever recorded" into ErrNoRecording.
//
// Defaults
//   - Scope durations are measured with time.Now (monotonic clock);
//     override with WithNowFunc.
//   - No metrics publication; opt in with WithMetrics(provider) to mirror
//     finished scopes into github.com/ygrebnov/metrics instruments.
//
// Merge semantics
//
// Folding a scope into a parent or a recorder is always additive, even
// for values written via Set. A gauge-like value therefore becomes a sum
// once it propagates; see the collector documentation.
package scopedstats
