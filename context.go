package scopedstats

import (
	"context"
	"sync/atomic"
)

type scopeKey struct{}

// scopeFrame links a scope's collector to the frame it shadowed, mirroring
// the save/restore discipline of a stack of ambient values. A finished
// frame stays in contexts derived from it, so lookups skip closed frames
// and land on the nearest still-open enclosing scope.
type scopeFrame struct {
	c      *collector
	parent *scopeFrame
	closed atomic.Bool
}

// withCollector installs c as the ambient collector on a derived context.
func withCollector(ctx context.Context, c *collector) context.Context {
	parent, _ := ctx.Value(scopeKey{}).(*scopeFrame)
	return context.WithValue(ctx, scopeKey{}, &scopeFrame{c: c, parent: parent})
}

// collectorFrom returns the innermost open collector on ctx, or nil when
// no recording scope is active.
func collectorFrom(ctx context.Context) *collector {
	f, _ := ctx.Value(scopeKey{}).(*scopeFrame)
	for f != nil && f.closed.Load() {
		f = f.parent
	}
	if f == nil {
		return nil
	}
	return f.c
}

// Increment adds 1 to the counter stored at key for the active recording
// scope on ctx. With no active scope it is a silent no-op, so
// instrumentation calls are always safe regardless of whether recording
// is on.
func Increment(ctx context.Context, key string, tags ...Tag) {
	IncrementBy(ctx, key, 1, tags...)
}

// IncrementBy adds amount to the counter stored at key for the active
// recording scope on ctx. No-op without an active scope.
func IncrementBy(ctx context.Context, key string, amount float64, tags ...Tag) {
	if c := collectorFrom(ctx); c != nil {
		c.increment(key, normalizeTags(tags), amount)
	}
}

// Set overwrites the value stored at key for the active recording scope
// on ctx, ignoring any previous value (gauge semantics, as opposed to the
// additive Increment). No-op without an active scope.
func Set(ctx context.Context, key string, value float64, tags ...Tag) {
	if c := collectorFrom(ctx); c != nil {
		c.set(key, normalizeTags(tags), value)
	}
}
