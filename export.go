package scopedstats

import (
	"strings"

	"github.com/ygrebnov/metrics"
)

// publish hands a finished scope's flattened data to a metrics provider.
// Duration metrics feed histograms, recorded in seconds; everything else
// feeds monotonic counters, truncated to int64. Instruments are created
// lazily by the provider and reused across scopes.
func publish(p metrics.Provider, c *collector) {
	for key, total := range c.stats(nil) {
		if isDurationKey(key) {
			p.Histogram(key, metrics.WithUnit("seconds")).Record(total)
			continue
		}
		p.Counter(key).Add(int64(total))
	}
}

func isDurationKey(key string) bool {
	return key == DurationKey || strings.HasSuffix(key, durSuffix)
}
