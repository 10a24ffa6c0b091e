package scopedstats

import (
	"sort"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Tag is a single dimension attached to a recorded sample: a string key
// paired with a string or boolean value. Construct with String or Bool.
// Two tag sets with the same content are the same dimension regardless of
// the order the tags were passed in.
type Tag struct {
	key    string
	str    string
	b      bool
	isBool bool
}

// String returns a Tag with a string value.
func String(key, value string) Tag {
	return Tag{key: key, str: value}
}

// Bool returns a Tag with a boolean value.
// Bool("k", true) and String("k", "true") are distinct dimensions.
func Bool(key string, value bool) Tag {
	return Tag{key: key, b: value, isBool: true}
}

// Key returns the tag's key.
func (t Tag) Key() string { return t.key }

// Value returns the tag's value as a string, with booleans formatted as
// "true"/"false".
func (t Tag) Value() string {
	if t.isBool {
		return strconv.FormatBool(t.b)
	}
	return t.str
}

// encoded returns the canonical wire form of a single pair. Keys and
// string values are quoted so that no key or value content can collide
// with the pair and type separators.
func (t Tag) encoded() string {
	if t.isBool {
		return strconv.Quote(t.key) + "=b:" + strconv.FormatBool(t.b)
	}
	return strconv.Quote(t.key) + "=s:" + strconv.Quote(t.str)
}

// signature is the canonical, order-independent form of a tag set: the
// encoded pairs sorted by key and joined. It is the dimension key for a
// metric sample. The empty signature stands for "no tags".
type signature string

const emptySignature signature = ""

// tagCache memoizes normalization so repeated tag combinations do not
// repeatedly pay the sort and encode cost. Lookup is keyed by an
// order-independent fingerprint of the pair set; each bucket entry is
// verified by content, so fingerprint collisions can never conflate two
// distinct tag sets. The cache only grows; tag universes are expected to
// be bounded in practice.
var tagCache = struct {
	mu      sync.RWMutex
	buckets map[uint64][]tagCacheEntry
	pairs   map[signature][]Tag
}{
	buckets: make(map[uint64][]tagCacheEntry),
	pairs:   make(map[signature][]Tag),
}

type tagCacheEntry struct {
	pairs []Tag // sorted by key
	sig   signature
}

// normalizeTags converts a tag set into its canonical signature.
// Duplicate keys resolve to the last occurrence, matching assignment into
// a map. The result depends only on the resolved content, never on order.
func normalizeTags(tags []Tag) signature {
	if len(tags) == 0 {
		return emptySignature
	}
	pairs := dedupeTags(tags)
	fp := fingerprintTags(pairs)

	tagCache.mu.RLock()
	for _, e := range tagCache.buckets[fp] {
		if samePairs(e.pairs, pairs) {
			tagCache.mu.RUnlock()
			return e.sig
		}
	}
	tagCache.mu.RUnlock()

	sorted := append([]Tag(nil), pairs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })
	var enc []byte
	for _, t := range sorted {
		enc = append(enc, t.encoded()...)
		enc = append(enc, ',')
	}
	sig := signature(enc)

	tagCache.mu.Lock()
	defer tagCache.mu.Unlock()
	for _, e := range tagCache.buckets[fp] {
		if samePairs(e.pairs, pairs) {
			return e.sig
		}
	}
	tagCache.buckets[fp] = append(tagCache.buckets[fp], tagCacheEntry{pairs: sorted, sig: sig})
	tagCache.pairs[sig] = sorted
	return sig
}

// pairsFor returns the sorted pairs a signature was built from. Every
// signature held by a collector came out of normalizeTags, so the lookup
// always hits; the nil fallback covers the empty signature.
func pairsFor(sig signature) []Tag {
	if sig == emptySignature {
		return nil
	}
	tagCache.mu.RLock()
	p := tagCache.pairs[sig]
	tagCache.mu.RUnlock()
	return p
}

// sigMatches reports whether the signature contains every pair of filter.
func sigMatches(sig signature, filter []Tag) bool {
	pairs := pairsFor(sig)
	for _, f := range filter {
		found := false
		for _, p := range pairs {
			if p == f {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// dedupeTags resolves duplicate keys, keeping the last occurrence.
// The common case of no duplicates returns the input slice untouched.
func dedupeTags(tags []Tag) []Tag {
	for i := 1; i < len(tags); i++ {
		for j := 0; j < i; j++ {
			if tags[j].key == tags[i].key {
				return dedupeTagsSlow(tags)
			}
		}
	}
	return tags
}

func dedupeTagsSlow(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		replaced := false
		for i := range out {
			if out[i].key == t.key {
				out[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, t)
		}
	}
	return out
}

// fingerprintTags combines per-pair hashes with XOR, so the result is
// independent of pair order. Pairs are distinct after dedupe, so no two
// identical digests can cancel each other out.
func fingerprintTags(pairs []Tag) uint64 {
	var fp uint64
	for _, t := range pairs {
		fp ^= xxhash.Sum64String(t.encoded())
	}
	return fp
}

// samePairs reports whether two deduped pair sets have identical content.
// a is sorted; b may be in any order.
func samePairs(a, b []Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for _, t := range b {
		found := false
		for _, u := range a {
			if t == u {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
