// scopedstats-bench exercises the scopedstats public API in a loop and
// prints the recorded results. It owns no state of its own; everything it
// shows comes out of a Recorder.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kcons/scopedstats"
)

var iterations int

var rootCmd = &cobra.Command{
	Use:   "scopedstats-bench",
	Short: "Benchmark and demonstrate the scopedstats recorder.",
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure increment throughput with and without tags.",
	RunE:  runBench,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Show timed-call wrapping and nested scopes.",
	RunE:  runDemo,
}

func runBench(cmd *cobra.Command, _ []string) error {
	rec, err := scopedstats.NewRecorder()
	if err != nil {
		return err
	}

	start := time.Now()
	ctx, finish := rec.Record(context.Background())
	for i := 0; i < iterations; i++ {
		scopedstats.Increment(ctx, "no_tags")
	}
	finish()
	noTags := time.Since(start)

	start = time.Now()
	ctx, finish = rec.Record(context.Background())
	for i := 0; i < iterations; i++ {
		scopedstats.Increment(ctx, "with_tags",
			scopedstats.String("type", "benchmark"),
			scopedstats.String("batch", strconv.Itoa(i/1000)),
		)
	}
	finish()
	withTags := time.Since(start)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "no tags:   %v (%.0f ops/sec)\n", noTags, float64(iterations)/noTags.Seconds())
	fmt.Fprintf(out, "with tags: %v (%.0f ops/sec)\n", withTags, float64(iterations)/withTags.Seconds())
	fmt.Fprintf(out, "tag overhead: %.1f%%\n", (withTags.Seconds()/noTags.Seconds()-1)*100)

	res, err := rec.Result(scopedstats.RequireRecording())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "final counts: no_tags=%v with_tags=%v\n", res["no_tags"], res["with_tags"])
	return nil
}

func runDemo(cmd *cobra.Command, _ []string) error {
	rec, err := scopedstats.NewRecorder()
	if err != nil {
		return err
	}

	work := scopedstats.Timed("demo.work", func(_ context.Context) (string, error) {
		time.Sleep(time.Millisecond)
		return "completed", nil
	})

	outerCtx, outerFinish := rec.Record(context.Background())
	for i := 0; i < 5; i++ {
		if _, err := work(outerCtx); err != nil {
			return err
		}
	}

	innerCtx, innerFinish := rec.Record(outerCtx)
	scopedstats.Increment(innerCtx, "nested_work", scopedstats.Bool("inner", true))
	innerFinish()
	outerFinish()

	res, err := rec.Result(scopedstats.RequireRecording())
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(res))
	for k := range res {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	for _, k := range keys {
		fmt.Fprintf(out, "%s = %v\n", k, res[k])
	}
	return nil
}

func main() {
	benchCmd.Flags().IntVarP(&iterations, "iterations", "n", 10000, "increments per benchmark loop")
	rootCmd.AddCommand(benchCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
