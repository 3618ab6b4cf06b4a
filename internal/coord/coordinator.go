// internal/coord/coordinator.go
package coord

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"kite/internal/matcher"
)

// Assignment is one unit of work handed to a worker.
type Assignment struct {
	File    string
	Group   string
	Grouped bool
}

// Report is what a worker tells the coordinator after a file.
type Report struct {
	Rank    int
	File    string
	Err     string
	Elapsed float64 // seconds
}

type groupAcc struct {
	match     *matcher.MatchSet
	remaining int
}

type barrier struct {
	arrived int
	done    chan struct{}
}

// Coordinator is the rank 0 state. All methods are safe for concurrent use;
// queue pulls and group joins are serialized by one mutex.
type Coordinator struct {
	mu       sync.Mutex
	queue    []string
	groups   map[string]*groupAcc
	sizes    map[string]int
	grouper  *Grouper
	parties  int
	barriers map[string]*barrier
	ranks    map[string]int
	reports  []Report
	emit     func(string)
	onReport func(Report)
	snapshot []byte
}

// Options configure a Coordinator.
type Options struct {
	Files    []string
	Grouper  *Grouper     // nil disables grouping
	Parties  int          // workers taking part in barriers (>=1)
	Emit     func(string) // result line sink
	OnReport func(Report) // optional, called outside the lock
	Snapshot []byte       // encoded reference database for remote workers
}

// NewCoordinator seeds the queue and, if grouping is on, one accumulator per
// group with its file count.
func NewCoordinator(o Options) *Coordinator {
	if o.Parties < 1 {
		o.Parties = 1
	}
	c := &Coordinator{
		queue:    append([]string(nil), o.Files...),
		grouper:  o.Grouper,
		parties:  o.Parties,
		barriers: make(map[string]*barrier),
		ranks:    make(map[string]int),
		emit:     o.Emit,
		onReport: o.OnReport,
		snapshot: o.Snapshot,
	}
	if c.emit == nil {
		c.emit = func(string) {}
	}
	if c.grouper != nil {
		c.groups = make(map[string]*groupAcc)
		c.sizes = make(map[string]int)
		for _, f := range c.queue {
			k := c.grouper.Key(f)
			g, ok := c.groups[k]
			if !ok {
				g = &groupAcc{match: matcher.NewMatchSet()}
				c.groups[k] = g
			}
			g.remaining++
			c.sizes[k]++
		}
	}
	return c
}

// Groups returns the group keys and their file counts at seeding time.
func (c *Coordinator) Groups() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.sizes))
	for k, n := range c.sizes {
		out[k] = n
	}
	return out
}

// GroupKeys is the sorted list of group keys.
func (c *Coordinator) GroupKeys() []string {
	gs := c.Groups()
	keys := make([]string, 0, len(gs))
	for k := range gs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parties is the number of workers barriers wait for.
func (c *Coordinator) Parties() int { return c.parties }

// Register assigns a rank to a worker id. Re-registering returns the same rank.
func (c *Coordinator) Register(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.ranks[id]; ok {
		return r
	}
	r := len(c.ranks)
	c.ranks[id] = r
	return r
}

// Next pops the next file. ok is false once the queue is empty.
func (c *Coordinator) Next() (Assignment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Assignment{}, false
	}
	f := c.queue[0]
	c.queue = c.queue[1:]
	a := Assignment{File: f}
	if c.grouper != nil {
		a.Group, a.Grouped = c.grouper.Key(f), true
	}
	return a, true
}

// JoinGroup merges part into the group and counts one file down. The caller
// that brings the count to zero receives the group's full match set; every
// other caller gets nil.
func (c *Coordinator) JoinGroup(key string, part *matcher.MatchSet) (*matcher.MatchSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[key]
	if !ok {
		return nil, errors.Errorf("unknown or completed group %q", key)
	}
	if part != nil {
		g.match.Merge(part)
	}
	g.remaining--
	if g.remaining > 0 {
		return nil, nil
	}
	delete(c.groups, key)
	return g.match, nil
}

// Emit forwards a finished result line to the output sink.
func (c *Coordinator) Emit(line string) { c.emit(line) }

// Report records the outcome of one file.
func (c *Coordinator) Report(r Report) {
	c.mu.Lock()
	c.reports = append(c.reports, r)
	c.mu.Unlock()
	if c.onReport != nil {
		c.onReport(r)
	}
}

// Reports returns the outcomes recorded so far.
func (c *Coordinator) Reports() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Report(nil), c.reports...)
}

// Snapshot is the encoded reference database, nil if none was provided.
func (c *Coordinator) Snapshot() []byte { return c.snapshot }

// Barrier blocks until Parties callers have arrived at the barrier called
// name, or ctx is done.
func (c *Coordinator) Barrier(ctx context.Context, name string) error {
	c.mu.Lock()
	b, ok := c.barriers[name]
	if !ok {
		b = &barrier{done: make(chan struct{})}
		c.barriers[name] = b
	}
	b.arrived++
	if b.arrived == c.parties {
		close(b.done)
	}
	c.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
