package scopedstats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecorder_ResultRequireRecordingGate(t *testing.T) {
	rec, err := NewRecorder()
	require.NoError(t, err)

	_, err = rec.Result(RequireRecording())
	require.ErrorIs(t, err, ErrNoRecording)
	require.False(t, rec.HasRecorded())

	// without the gate, an empty result is fine
	res, err := rec.Result()
	require.NoError(t, err)
	require.Empty(t, res)

	_, finish := rec.Record(context.Background())
	finish()

	res, err = rec.Result(RequireRecording())
	require.NoError(t, err)
	require.Contains(t, res, DurationKey)
	require.True(t, rec.HasRecorded())
}

func TestRecorder_NestingPropagation(t *testing.T) {
	rec, err := NewRecorder()
	require.NoError(t, err)

	outerCtx, outerFinish := rec.Record(context.Background())
	Increment(outerCtx, "x")

	innerCtx, innerFinish := rec.Record(outerCtx)
	Increment(innerCtx, "x")
	innerFinish()

	outerFinish()

	res, err := rec.Result()
	require.NoError(t, err)
	// inner increment lands in the inner scope's own merge and again via
	// the outer scope it was folded into: 1 (outer) + 1 (inner direct) +
	// 1 (inner folded into outer) = 3.
	require.Equal(t, 3.0, res["x"])
}

func TestRecorder_NestingAcrossRecorders(t *testing.T) {
	outer, err := NewRecorder()
	require.NoError(t, err)
	inner, err := NewRecorder()
	require.NoError(t, err)

	outerCtx, outerFinish := outer.Record(context.Background())
	innerCtx, innerFinish := inner.Record(outerCtx)
	Increment(innerCtx, "deep")
	innerFinish()
	outerFinish()

	outerRes, err := outer.Result()
	require.NoError(t, err)
	innerRes, err := inner.Result()
	require.NoError(t, err)

	require.Equal(t, 1.0, outerRes["deep"], "outer recorder sees the inner scope's contribution")
	require.Equal(t, 1.0, innerRes["deep"])
}

func TestRecorder_DurationStamp(t *testing.T) {
	now := time.Unix(100, 0)
	rec, err := NewRecorder(WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)

	_, finish := rec.Record(context.Background())
	now = now.Add(1500 * time.Millisecond)
	finish()

	res, err := rec.Result()
	require.NoError(t, err)
	require.InDelta(t, 1.5, res[DurationKey], 1e-9)
}

func TestRecorder_DurationSumsAcrossScopes(t *testing.T) {
	// Within one scope the duration is a single set value; across scopes
	// the recorder accumulates it additively on merge.
	now := time.Unix(0, 0)
	rec, err := NewRecorder(WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, finish := rec.Record(context.Background())
		now = now.Add(time.Second)
		finish()
	}

	res, err := rec.Result()
	require.NoError(t, err)
	require.InDelta(t, 3.0, res[DurationKey], 1e-9)
}

func TestRecorder_NestedDurationSumsIntoParent(t *testing.T) {
	now := time.Unix(0, 0)
	rec, err := NewRecorder(WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)

	outerCtx, outerFinish := rec.Record(context.Background())
	_, innerFinish := rec.Record(outerCtx)
	now = now.Add(time.Second)
	innerFinish() // inner duration: 1s, folded into the outer scope
	now = now.Add(time.Second)
	outerFinish()

	res, err := rec.Result()
	require.NoError(t, err)
	// The outer scope stamps its duration with set, overwriting the 1s
	// the inner scope folded in: 1 (inner direct) + 2 (outer) = 3.
	require.InDelta(t, 3.0, res[DurationKey], 1e-9)
}

func TestRecorder_SequentialScopesSum(t *testing.T) {
	rec, err := NewRecorder()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ctx, finish := rec.Record(context.Background())
		Increment(ctx, "x")
		finish()
	}

	res, err := rec.Result()
	require.NoError(t, err)
	require.Equal(t, 2.0, res["x"])
}

func TestRecorder_FilterSemantics(t *testing.T) {
	rec, err := NewRecorder()
	require.NoError(t, err)

	ctx, finish := rec.Record(context.Background())
	Increment(ctx, "y", String("env", "prod"))
	Increment(ctx, "y", String("env", "dev"))
	finish()

	filtered, err := rec.Result(WithFilter(String("env", "prod")))
	require.NoError(t, err)
	require.Equal(t, 1.0, filtered["y"])
	require.NotContains(t, filtered, DurationKey, "untagged samples do not match a filter")

	full, err := rec.Result()
	require.NoError(t, err)
	require.Equal(t, 2.0, full["y"])
}

func TestRecorder_FinishIsIdempotent(t *testing.T) {
	rec, err := NewRecorder()
	require.NoError(t, err)

	ctx, finish := rec.Record(context.Background())
	Increment(ctx, "once")
	finish()
	finish()
	finish()

	res, err := rec.Result()
	require.NoError(t, err)
	require.Equal(t, 1.0, res["once"])
}

func TestRecorder_FinishRunsOnPanicPath(t *testing.T) {
	rec, err := NewRecorder()
	require.NoError(t, err)

	func() {
		defer func() { require.NotNil(t, recover()) }()
		ctx, finish := rec.Record(context.Background())
		defer finish()
		Increment(ctx, "before_panic")
		panic("boom")
	}()

	res, err := rec.Result(RequireRecording())
	require.NoError(t, err)
	require.Equal(t, 1.0, res["before_panic"])
	require.Contains(t, res, DurationKey)
}

func TestRecorder_ConcurrentScopeExitsLoseNothing(t *testing.T) {
	rec, err := NewRecorder()
	require.NoError(t, err)

	const goroutines = 32
	const perScope = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			ctx, finish := rec.Record(context.Background())
			defer finish()
			for i := 0; i < perScope; i++ {
				Increment(ctx, "total", String("tagged", "yes"))
			}
		}()
	}
	wg.Wait()

	res, err := rec.Result()
	require.NoError(t, err)
	require.Equal(t, float64(goroutines*perScope), res["total"])
}

func TestNewRecorder_OptionErrors(t *testing.T) {
	type testCase struct {
		name string
		opts []Option
	}

	tests := []testCase{
		{name: "nil option", opts: []Option{nil}},
		{name: "nil provider", opts: []Option{WithMetrics(nil)}},
		{name: "nil now func", opts: []Option{WithNowFunc(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecorder(tt.opts...)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}
