// internal/matcher/matchset.go
package matcher

import (
	"sort"
	"sync"

	"github.com/zeebo/xxh3"

	"kite/internal/shingle"
)

const shardCount = 64

type shard struct {
	mu  sync.Mutex
	set shingle.Set
}

// MatchSet is a concurrent shingle set, sharded by hash to keep workers from
// contending on one lock.
type MatchSet struct {
	shards [shardCount]shard
}

func NewMatchSet() *MatchSet {
	m := &MatchSet{}
	for i := range m.shards {
		m.shards[i].set = shingle.NewSet(0)
	}
	return m
}

// FromSlice builds a MatchSet holding ss.
func FromSlice(ss []string) *MatchSet {
	m := NewMatchSet()
	m.AddSlice(ss)
	return m
}

func (m *MatchSet) shardOf(s string) *shard {
	return &m.shards[xxh3.HashString(s)%shardCount]
}

// AddAll unions s into m.
func (m *MatchSet) AddAll(s shingle.Set) {
	var parts [shardCount][]string
	for k := range s {
		i := xxh3.HashString(k) % shardCount
		parts[i] = append(parts[i], k)
	}
	m.addParts(&parts)
}

// AddSlice unions ss into m.
func (m *MatchSet) AddSlice(ss []string) {
	var parts [shardCount][]string
	for _, k := range ss {
		i := xxh3.HashString(k) % shardCount
		parts[i] = append(parts[i], k)
	}
	m.addParts(&parts)
}

func (m *MatchSet) addParts(parts *[shardCount][]string) {
	for i := range parts {
		if len(parts[i]) == 0 {
			continue
		}
		sh := &m.shards[i]
		sh.mu.Lock()
		for _, k := range parts[i] {
			sh.set.Add(k)
		}
		sh.mu.Unlock()
	}
}

// Merge unions o into m. o must not be mutated concurrently.
func (m *MatchSet) Merge(o *MatchSet) {
	for i := range o.shards {
		src := o.shards[i].set
		if len(src) == 0 {
			continue
		}
		sh := &m.shards[i]
		sh.mu.Lock()
		sh.set.Union(src)
		sh.mu.Unlock()
	}
}

func (m *MatchSet) Has(s string) bool {
	sh := m.shardOf(s)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.set.Has(s)
}

func (m *MatchSet) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].mu.Lock()
		n += len(m.shards[i].set)
		m.shards[i].mu.Unlock()
	}
	return n
}

// Set copies the members into a plain set for read-heavy use such as ranking.
func (m *MatchSet) Set() shingle.Set {
	out := shingle.NewSet(m.Len())
	for i := range m.shards {
		m.shards[i].mu.Lock()
		out.Union(m.shards[i].set)
		m.shards[i].mu.Unlock()
	}
	return out
}

// Slice returns the members in lexical order.
func (m *MatchSet) Slice() []string {
	out := make([]string, 0, m.Len())
	for i := range m.shards {
		m.shards[i].mu.Lock()
		for k := range m.shards[i].set {
			out = append(out, k)
		}
		m.shards[i].mu.Unlock()
	}
	sort.Strings(out)
	return out
}
