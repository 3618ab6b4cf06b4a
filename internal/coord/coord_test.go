package coord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"kite/internal/matcher"
)

func TestGrouper(t *testing.T) {
	g, err := NewGrouper(`sample_\d+`)
	if err != nil {
		t.Fatal(err)
	}
	if k := g.Key("/data/sample_12_R1.fq.gz"); k != "sample_12" {
		t.Fatalf("got %q", k)
	}
	if k := g.Key("other.fq.gz"); k != "" {
		t.Fatalf("non-matching file should map to empty key, got %q", k)
	}
	if g, err := NewGrouper(""); g != nil || err != nil {
		t.Fatal("empty pattern disables grouping")
	}
	if _, err := NewGrouper("("); err == nil {
		t.Fatal("bad pattern should fail")
	}
}

func TestNextHandsOutEachFileOnce(t *testing.T) {
	var files []string
	for i := 0; i < 500; i++ {
		files = append(files, fmt.Sprintf("f%03d", i))
	}
	c := NewCoordinator(Options{Files: files})

	var (
		mu  sync.Mutex
		got []string
		wg  sync.WaitGroup
	)
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				a, ok := c.Next()
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, a.File)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	sort.Strings(got)
	if strings.Join(got, ",") != strings.Join(files, ",") {
		t.Fatalf("files lost or duplicated: %d handed out", len(got))
	}
}

func TestGroupCompletesExactlyOnce(t *testing.T) {
	g, _ := NewGrouper(`^g\d`)
	files := []string{"g1_a", "g1_b", "g1_c", "g1_d", "g2_a", "x"}
	c := NewCoordinator(Options{Files: files, Grouper: g})
	if gs := c.Groups(); gs["g1"] != 4 || gs["g2"] != 1 || gs[""] != 1 {
		t.Fatalf("seeded groups: %v", gs)
	}

	parts := map[string][]string{
		"g1_a": {"AAA", "CCC"},
		"g1_b": {"CCC", "GGG"},
		"g1_c": nil,
		"g1_d": {"TTT"},
	}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed []*matcher.MatchSet
	)
	for f, p := range parts {
		wg.Add(1)
		go func(f string, p []string) {
			defer wg.Done()
			m, err := c.JoinGroup("g1", matcher.FromSlice(p))
			if err != nil {
				t.Error(err)
				return
			}
			if m != nil {
				mu.Lock()
				completed = append(completed, m)
				mu.Unlock()
			}
		}(f, p)
	}
	wg.Wait()
	if len(completed) != 1 {
		t.Fatalf("group completed %d times", len(completed))
	}
	if got := strings.Join(completed[0].Slice(), ","); got != "AAA,CCC,GGG,TTT" {
		t.Fatalf("group union: %s", got)
	}
	if _, err := c.JoinGroup("g1", nil); err == nil {
		t.Fatal("joining a completed group must fail")
	}
}

func TestBarrier(t *testing.T) {
	c := NewCoordinator(Options{Parties: 3})
	var released sync.WaitGroup
	for i := 0; i < 2; i++ {
		released.Add(1)
		go func() {
			defer released.Done()
			if err := c.Barrier(context.Background(), "b"); err != nil {
				t.Error(err)
			}
		}()
	}
	done := make(chan struct{})
	go func() { released.Wait(); close(done) }()
	select {
	case <-done:
		t.Fatal("barrier released before all parties arrived")
	case <-time.After(50 * time.Millisecond):
	}
	if err := c.Barrier(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	<-done

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Barrier(ctx, "never"); err == nil {
		t.Fatal("canceled barrier should fail")
	}
}

func TestRegisterIsStable(t *testing.T) {
	c := NewCoordinator(Options{})
	a := c.Register("a")
	b := c.Register("b")
	if a == b || c.Register("a") != a {
		t.Fatalf("ranks a=%d b=%d", a, b)
	}
}
