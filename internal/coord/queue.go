// internal/coord/queue.go
package coord

import (
	"context"

	"kite/internal/matcher"
)

// Queue is a worker's view of the coordinator.
type Queue interface {
	Register(ctx context.Context, id string) (rank int, err error)
	Next(ctx context.Context) (Assignment, bool, error)
	JoinGroup(ctx context.Context, key string, part *matcher.MatchSet) (*matcher.MatchSet, error)
	Emit(ctx context.Context, line string) error
	Report(ctx context.Context, r Report) error
	Barrier(ctx context.Context, name string) error
}

// Local is a Queue for workers living in the coordinator's process.
type Local struct {
	C *Coordinator
}

var _ Queue = Local{}

func (l Local) Register(_ context.Context, id string) (int, error) { return l.C.Register(id), nil }

func (l Local) Next(ctx context.Context) (Assignment, bool, error) {
	if err := ctx.Err(); err != nil {
		return Assignment{}, false, err
	}
	a, ok := l.C.Next()
	return a, ok, nil
}

func (l Local) JoinGroup(_ context.Context, key string, part *matcher.MatchSet) (*matcher.MatchSet, error) {
	return l.C.JoinGroup(key, part)
}

func (l Local) Emit(_ context.Context, line string) error {
	l.C.Emit(line)
	return nil
}

func (l Local) Report(_ context.Context, r Report) error {
	l.C.Report(r)
	return nil
}

func (l Local) Barrier(ctx context.Context, name string) error { return l.C.Barrier(ctx, name) }
