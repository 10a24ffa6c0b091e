package scopedstats

// collector accumulates samples for a single active recording scope.
// It is owned and mutated by exactly one logical task, so it takes no
// locks. Layout: metric key -> tag signature -> value.
type collector struct {
	data map[string]map[signature]float64
}

func newCollector() *collector {
	return &collector{data: make(map[string]map[signature]float64)}
}

func (c *collector) samples(key string) map[signature]float64 {
	s := c.data[key]
	if s == nil {
		s = make(map[signature]float64)
		c.data[key] = s
	}
	return s
}

func (c *collector) increment(key string, sig signature, amount float64) {
	c.samples(key)[sig] += amount
}

// set overwrites the stored value, ignoring any previous one. Used for
// gauge-like values written once per scope, such as the scope duration.
func (c *collector) set(key string, sig signature, value float64) {
	c.samples(key)[sig] = value
}

// mergeInto adds every sample into dst. Merging is always additive, even
// for values written via set: once a scope's data propagates to a parent
// or a recorder, every contribution is treated as a count.
func (c *collector) mergeInto(dst *collector) {
	for key, samples := range c.data {
		ds := dst.samples(key)
		for sig, v := range samples {
			ds[sig] += v
		}
	}
}

// stats flattens the collector into metric key -> total, summing across
// the signatures that contain every pair of filter. With no filter every
// known key is reported, including keys that total zero; with a filter,
// keys whose matching total is not positive are dropped.
func (c *collector) stats(filter []Tag) map[string]float64 {
	out := make(map[string]float64, len(c.data))
	for key, samples := range c.data {
		var total float64
		for sig, v := range samples {
			if len(filter) == 0 || sigMatches(sig, filter) {
				total += v
			}
		}
		if total > 0 || len(filter) == 0 {
			out[key] = total
		}
	}
	return out
}
