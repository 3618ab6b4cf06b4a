// internal/coord/rpc.go
package coord

import (
	"context"
	"net"
	"net/rpc"
	"sync"

	"github.com/pkg/errors"

	"kite/internal/matcher"
)

const serviceName = "Coordinator"

// Wire types of the coordinator service.
type (
	RegisterArgs  struct{ ID string }
	RegisterReply struct{ Rank int }
	NextArgs      struct{ Rank int }
	NextReply     struct {
		Assignment Assignment
		OK         bool
	}
	JoinArgs struct {
		Key      string
		Shingles []string
	}
	JoinReply struct {
		Complete bool
		Shingles []string
	}
	EmitArgs    struct{ Line string }
	BarrierArgs struct{ Name string }
	// Ack is the reply of calls that return nothing. gob cannot encode
	// field-less structs, hence OK.
	Ack struct{ OK bool }
)

// Service exposes a Coordinator over net/rpc.
type Service struct {
	c *Coordinator
}

func (s *Service) Register(args RegisterArgs, reply *RegisterReply) error {
	reply.Rank = s.c.Register(args.ID)
	return nil
}

func (s *Service) Next(_ NextArgs, reply *NextReply) error {
	reply.Assignment, reply.OK = s.c.Next()
	return nil
}

func (s *Service) JoinGroup(args JoinArgs, reply *JoinReply) error {
	m, err := s.c.JoinGroup(args.Key, matcher.FromSlice(args.Shingles))
	if err != nil {
		return err
	}
	if m != nil {
		reply.Complete = true
		reply.Shingles = m.Slice()
	}
	return nil
}

func (s *Service) Emit(args EmitArgs, reply *Ack) error {
	s.c.Emit(args.Line)
	reply.OK = true
	return nil
}

func (s *Service) Report(args Report, reply *Ack) error {
	s.c.Report(args)
	reply.OK = true
	return nil
}

func (s *Service) Barrier(args BarrierArgs, reply *Ack) error {
	if err := s.c.Barrier(context.Background(), args.Name); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

func (s *Service) Snapshot(_ Ack, reply *[]byte) error {
	if s.c.Snapshot() == nil {
		return errors.New("coordinator has no database snapshot")
	}
	*reply = s.c.Snapshot()
	return nil
}

// Serve accepts coordinator connections on ln until ctx is done.
func Serve(ctx context.Context, ln net.Listener, c *Coordinator) error {
	srv := rpc.NewServer()
	if err := srv.RegisterName(serviceName, &Service{c: c}); err != nil {
		return errors.Wrap(err, "register coordinator service")
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accept")
		}
		go srv.ServeConn(conn)
	}
}

// Client is a Queue backed by a remote coordinator. Emit is asynchronous;
// Flush waits for every emitted line to be acknowledged.
type Client struct {
	rc *rpc.Client

	mu      sync.Mutex
	pending sync.WaitGroup
	emitErr error
}

var _ Queue = (*Client)(nil)

// Dial connects to a coordinator at addr (host:port).
func Dial(addr string) (*Client, error) {
	rc, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial coordinator %s", addr)
	}
	return &Client{rc: rc}, nil
}

func (c *Client) call(ctx context.Context, method string, args, reply any) error {
	call := c.rc.Go(serviceName+"."+method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		return errors.Wrap(call.Error, method)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Register(ctx context.Context, id string) (int, error) {
	var r RegisterReply
	err := c.call(ctx, "Register", RegisterArgs{ID: id}, &r)
	return r.Rank, err
}

func (c *Client) Next(ctx context.Context) (Assignment, bool, error) {
	var r NextReply
	if err := c.call(ctx, "Next", NextArgs{}, &r); err != nil {
		return Assignment{}, false, err
	}
	return r.Assignment, r.OK, nil
}

func (c *Client) JoinGroup(ctx context.Context, key string, part *matcher.MatchSet) (*matcher.MatchSet, error) {
	args := JoinArgs{Key: key}
	if part != nil {
		args.Shingles = part.Slice()
	}
	var r JoinReply
	if err := c.call(ctx, "JoinGroup", args, &r); err != nil {
		return nil, err
	}
	if !r.Complete {
		return nil, nil
	}
	return matcher.FromSlice(r.Shingles), nil
}

func (c *Client) Emit(_ context.Context, line string) error {
	c.pending.Add(1)
	done := make(chan *rpc.Call, 1)
	c.rc.Go(serviceName+".Emit", EmitArgs{Line: line}, &Ack{}, done)
	go func() {
		defer c.pending.Done()
		if call := <-done; call.Error != nil {
			c.mu.Lock()
			if c.emitErr == nil {
				c.emitErr = errors.Wrap(call.Error, "Emit")
			}
			c.mu.Unlock()
		}
	}()
	return nil
}

// Flush waits for outstanding Emit calls and returns the first failure.
func (c *Client) Flush() error {
	c.pending.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emitErr
}

func (c *Client) Report(ctx context.Context, r Report) error {
	return c.call(ctx, "Report", r, &Ack{})
}

func (c *Client) Barrier(ctx context.Context, name string) error {
	return c.call(ctx, "Barrier", BarrierArgs{Name: name}, &Ack{})
}

// Snapshot fetches the coordinator's encoded reference database.
func (c *Client) Snapshot(ctx context.Context) ([]byte, error) {
	var b []byte
	err := c.call(ctx, "Snapshot", Ack{}, &b)
	return b, err
}

func (c *Client) Close() error { return c.rc.Close() }
