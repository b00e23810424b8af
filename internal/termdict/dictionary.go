// Package termdict is an in-memory, lexically ordered term dictionary: each
// grid token maps to the sorted ids of the documents indexed with it.
//
// Writers go through Dictionary; readers take a Snapshot, which stays
// unchanged while the dictionary keeps moving.
//
// Go Learning Note (Copy-on-write B-tree):
// tidwall/btree's Map.Copy is O(1). The copy shares nodes with the original
// and each side clones a node lazily the first time it writes to it. A
// snapshot is therefore as cheap as taking a pointer, while later writes to
// the dictionary never show up in the snapshot.
package termdict

import (
	"sort"
	"sync"

	"github.com/tidwall/btree"

	"spatialprefix/internal/filter"
)

// Dictionary is safe for concurrent use.
type Dictionary struct {
	mu    sync.RWMutex
	terms btree.Map[string, []string] // token -> sorted doc ids, never mutated in place
	gen   uint64
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{}
}

// Add appends docID to the posting list of every token.
func (d *Dictionary) Add(docID string, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, tok := range tokens {
		docs, _ := d.terms.Get(tok)
		i := sort.SearchStrings(docs, docID)
		if i < len(docs) && docs[i] == docID {
			continue
		}
		next := make([]string, 0, len(docs)+1)
		next = append(next, docs[:i]...)
		next = append(next, docID)
		next = append(next, docs[i:]...)
		d.terms.Set(tok, next)
	}
	d.gen++
}

// Remove drops docID from the posting list of every token. Tokens left
// without documents are deleted.
func (d *Dictionary) Remove(docID string, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := false
	for _, tok := range tokens {
		docs, ok := d.terms.Get(tok)
		if !ok {
			continue
		}
		i := sort.SearchStrings(docs, docID)
		if i == len(docs) || docs[i] != docID {
			continue
		}
		changed = true
		if len(docs) == 1 {
			d.terms.Delete(tok)
			continue
		}
		next := make([]string, 0, len(docs)-1)
		next = append(next, docs[:i]...)
		next = append(next, docs[i+1:]...)
		d.terms.Set(tok, next)
	}
	if changed {
		d.gen++
	}
}

// Generation increases with every change. Caches key on it.
func (d *Dictionary) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gen
}

// Len returns the number of distinct terms.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.terms.Len()
}

// Docs returns the posting list of term, or nil.
func (d *Dictionary) Docs(term string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	docs, _ := d.terms.Get(term)
	return docs
}

// Snapshot returns a read-only view of the current contents.
func (d *Dictionary) Snapshot() *Snapshot {
	// Copy marks the shared nodes, so it needs the write lock
	d.mu.Lock()
	defer d.mu.Unlock()
	return &Snapshot{terms: d.terms.Copy(), gen: d.gen}
}

// Snapshot is an immutable view of a Dictionary. It implements
// filter.TermDictionary.
type Snapshot struct {
	terms *btree.Map[string, []string]
	gen   uint64
}

var _ filter.TermDictionary = (*Snapshot)(nil)

// Generation is the dictionary generation the snapshot was taken at.
func (s *Snapshot) Generation() uint64 { return s.gen }

// Len returns the number of distinct terms.
func (s *Snapshot) Len() int { return s.terms.Len() }

// Terms returns an unpositioned cursor over the snapshot.
func (s *Snapshot) Terms() filter.TermsEnum {
	return &termsEnum{iter: s.terms.Iter()}
}

// Walk calls fn for every term in order until fn returns false.
func (s *Snapshot) Walk(fn func(term string, docs []string) bool) {
	s.terms.Scan(fn)
}

type termsEnum struct {
	iter    btree.MapIter[string, []string]
	started bool
	valid   bool
}

func (e *termsEnum) SeekCeil(term string) filter.SeekStatus {
	e.started = true
	e.valid = e.iter.Seek(term)
	switch {
	case !e.valid:
		return filter.SeekEnd
	case e.iter.Key() == term:
		return filter.SeekFound
	default:
		return filter.SeekNotFound
	}
}

func (e *termsEnum) Next() bool {
	switch {
	case !e.started:
		// an unpositioned enum starts at the first term
		e.started = true
		e.valid = e.iter.First()
		return e.valid
	case !e.valid:
		return false
	}
	e.valid = e.iter.Next()
	return e.valid
}

func (e *termsEnum) Term() string {
	if !e.valid {
		return ""
	}
	return e.iter.Key()
}

func (e *termsEnum) Docs() []string {
	if !e.valid {
		return nil
	}
	return e.iter.Value()
}
