package scopedstats

import (
	"context"
	"reflect"
	"runtime"
	"time"
)

const (
	countSuffix = ".count"
	durSuffix   = ".total_dur"

	derivedKeyPrefix = "calls."
)

// Timed wraps fn so that every invocation inside an active recording
// scope records two derived metrics: "<key>.count", incremented by 1, and
// "<key>.total_dur", incremented by the elapsed wall-clock seconds. The
// timing write happens in a defer, so it runs whether fn returns an
// error, panics, or succeeds. Outside a scope the wrapper calls through
// with no side effects.
//
// An empty key derives one from fn's runtime name, prefixed "calls.".
// The tags are normalized once, at wrap time; every invocation reports
// under the same fixed signature.
func Timed[R any](key string, fn func(context.Context) (R, error), tags ...Tag) func(context.Context) (R, error) {
	if key == "" {
		key = derivedKey(fn)
	}
	sig := normalizeTags(tags)
	countKey := key + countSuffix
	durKey := key + durSuffix

	return func(ctx context.Context) (R, error) {
		c := collectorFrom(ctx)
		if c == nil {
			return fn(ctx)
		}
		start := time.Now()
		defer func() {
			c.increment(countKey, sig, 1)
			c.increment(durKey, sig, time.Since(start).Seconds())
		}()
		return fn(ctx)
	}
}

// TimedErr adapts func(ctx) error to the Timed wrapper. The key, when
// empty, derives from fn rather than from the adapter closure.
func TimedErr(key string, fn func(context.Context) error, tags ...Tag) func(context.Context) error {
	if key == "" {
		key = derivedKey(fn)
	}
	wrapped := Timed(key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, tags...)
	return func(ctx context.Context) error {
		_, err := wrapped(ctx)
		return err
	}
}

// derivedKey names a wrapped callable after its runtime function name.
func derivedKey(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return derivedKeyPrefix + f.Name()
	}
	return derivedKeyPrefix + "func"
}
