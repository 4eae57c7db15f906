package bwt

import "sync"

// maxCacheEntries bounds the positional cache so that a long walk over a
// large store cannot grow it without limit.
const maxCacheEntries = 250000

type cacheEntry struct {
	pos  int
	len  int
	char byte
	rank int
}

// cache remembers previously-decoded runs, indexed by the BWT position
// range they cover, so that repeated LF-walks over hot regions of the
// store skip the checkpoint replay in Context.decode. It is safe for
// concurrent use.
type cache struct {
	mu       sync.Mutex
	entries  []cacheEntry // sorted ascending by pos
	hits     int
	misses   int
	disabled bool
}

func newCache() *cache {
	return &cache{}
}

// newDisabledCache returns a cache that never stores anything: every lookup
// misses and every insert is a no-op. It backs Context's cache-disabled mode
// (spec §8.9: results must be identical whether or not the cache is used).
func newDisabledCache() *cache {
	return &cache{disabled: true}
}

// lookup returns the cached run covering pos, if any. A hit on a
// length-1 run evicts it immediately: a singleton run carries no benefit
// to a future lookup once it has already served one, so keeping it only
// wastes cache space.
func (c *cache) lookup(pos int) (Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled {
		c.misses++
		return Run{}, false
	}

	i := c.predecessor(pos)
	if i < 0 {
		c.misses++
		return Run{}, false
	}
	e := c.entries[i]
	if pos >= e.pos+e.len {
		c.misses++
		return Run{}, false
	}

	c.hits++
	if e.len == 1 {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
	}
	return Run{Char: e.char, Pos: e.pos, Len: e.len, Rank: e.rank}, true
}

// predecessor returns the index of the entry with the greatest pos <= pos,
// or -1 if none exists. Callers hold c.mu.
func (c *cache) predecessor(pos int) int {
	lo, hi := 0, len(c.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if c.entries[mid].pos <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

// insert records r in the cache, unless it is already at capacity: once
// full, the cache is bounded and inserts are simply ignored rather than
// evicting an existing entry.
func (c *cache) insert(r Run) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled || len(c.entries) >= maxCacheEntries {
		return
	}

	i := c.predecessor(r.Pos) + 1
	if i < len(c.entries) && c.entries[i].pos == r.Pos {
		return
	}
	entry := cacheEntry{pos: r.Pos, len: r.Len, char: r.Char, rank: r.Rank}
	c.entries = append(c.entries, cacheEntry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry
}

func (c *cache) stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// cachedDecode is Context.decode with the positional cache interposed.
func (c *Context) cachedDecode(pos int) (Run, error) {
	if r, ok := c.cache.lookup(pos); ok {
		return r, nil
	}
	r, err := c.decode(pos)
	if err != nil {
		return Run{}, err
	}
	c.cache.insert(r)
	return r, nil
}
