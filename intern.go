package duskline

import (
	"sync"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// Pool is a monotonically growing interning table mapping multi-codepoint
// grapheme clusters to dense, insertion-ordered ids. Ids are stable for
// the life of the pool; lookups are total.
type Pool struct {
	mu      sync.RWMutex
	strings []string
	ids     map[string]GraphemeID
}

// NewPool creates an empty grapheme pool.
func NewPool() *Pool {
	return &Pool{ids: make(map[string]GraphemeID)}
}

// Intern returns the existing id for s, or allocates and returns the next
// sequential id. Ids are assigned in first-insertion order.
func (p *Pool) Intern(s string) GraphemeID {
	p.mu.RLock()
	if id, ok := p.ids[s]; ok {
		p.mu.RUnlock()
		return id
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.ids[s]; ok {
		return id
	}
	id := GraphemeID(len(p.strings))
	p.strings = append(p.strings, s)
	p.ids[s] = id
	return id
}

// Get returns the interned string for id, or ("", false) if unallocated.
func (p *Pool) Get(id GraphemeID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := int(id)
	if idx < 0 || idx >= len(p.strings) {
		return "", false
	}
	return p.strings[idx], true
}

// Len reports the number of interned clusters.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.strings)
}

// SplitGraphemes segments s into user-perceived grapheme clusters
// following Unicode UAX #29. The upstream renderer uses this to decide
// how many Cells a piece of text should consume before interning
// multi-codepoint clusters into a Pool; the pool itself is agnostic to
// segmentation and simply stores whatever string it is asked to intern.
func SplitGraphemes(s string) []string {
	var out []string
	seg := graphemes.FromString(s)
	for seg.Next() {
		out = append(out, seg.Value())
	}
	return out
}

// LinkRegistry interns hyperlink URLs referenced by id from cell
// attributes. Id 0 (LinkNone) is reserved for "no link" and is never
// allocated by Register.
type LinkRegistry struct {
	mu      sync.RWMutex
	urls    []string
	ids     map[string]LinkID
}

// NewLinkRegistry creates an empty link registry.
func NewLinkRegistry() *LinkRegistry {
	return &LinkRegistry{ids: make(map[string]LinkID)}
}

// Register returns the existing id for url, or allocates and returns the
// next sequential id starting at 1.
func (r *LinkRegistry) Register(url string) LinkID {
	r.mu.RLock()
	if id, ok := r.ids[url]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[url]; ok {
		return id
	}
	id := LinkID(len(r.urls) + 1)
	r.urls = append(r.urls, url)
	r.ids[url] = id
	return id
}

// Resolve returns the URL for id, or ("", false) if id is LinkNone or
// unallocated.
func (r *LinkRegistry) Resolve(id LinkID) (string, bool) {
	if id == LinkNone {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(r.urls) {
		return "", false
	}
	return r.urls[idx], true
}

// Len reports the number of registered URLs.
func (r *LinkRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.urls)
}
