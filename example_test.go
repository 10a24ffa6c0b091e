package scopedstats_test

import (
	"context"
	"fmt"

	"github.com/kcons/scopedstats"
)

// ExampleRecorder records tagged counters during a scope and reads back a
// flat result.
func ExampleRecorder() {
	rec, _ := scopedstats.NewRecorder()

	ctx, finish := rec.Record(context.Background())
	scopedstats.Increment(ctx, "requests", scopedstats.String("env", "prod"))
	scopedstats.Increment(ctx, "requests", scopedstats.String("env", "dev"))
	finish()

	full, _ := rec.Result()
	prod, _ := rec.Result(scopedstats.WithFilter(scopedstats.String("env", "prod")))

	fmt.Println(full["requests"], prod["requests"])
	// Output: 2 1
}

// ExampleRecorder_nested shows inner scopes folding into enclosing ones.
func ExampleRecorder_nested() {
	rec, _ := scopedstats.NewRecorder()

	outerCtx, outerFinish := rec.Record(context.Background())
	scopedstats.Increment(outerCtx, "x")

	innerCtx, innerFinish := rec.Record(outerCtx)
	scopedstats.Increment(innerCtx, "x")
	innerFinish()

	outerFinish()

	res, _ := rec.Result()
	fmt.Println(res["x"])
	// Output: 3
}

// ExampleTimed wraps a function so every call inside a scope reports a
// count and a total duration.
func ExampleTimed() {
	rec, _ := scopedstats.NewRecorder()

	query := scopedstats.Timed("db.query", func(_ context.Context) (int, error) {
		return 42, nil
	})

	ctx, finish := rec.Record(context.Background())
	v, _ := query(ctx)
	_, _ = query(ctx)
	finish()

	res, _ := rec.Result()
	fmt.Println(v, res["db.query.count"])
	// Output: 42 2
}
