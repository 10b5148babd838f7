package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "samplewatch/pkg/logx"
)

type fakeChannel struct {
	name     string
	failures int // fail this many sends before succeeding
	calls    atomic.Int64
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(context.Context, *Message) error {
	n := c.calls.Add(1)
	if int(n) <= c.failures {
		return errors.New("transient failure")
	}
	return nil
}

func fastOpts() DispatcherOptions {
	return DispatcherOptions{RetryMax: 3, RetryBase: time.Millisecond, RetryMaxDelay: 2 * time.Millisecond}
}

func TestDispatchNoChannels(t *testing.T) {
	t.Parallel()
	d := NewDispatcher(nil, fastOpts(), logx.Nop())
	if _, err := d.Dispatch(context.Background(), &Message{}); !errors.Is(err, ErrNoChannels) {
		t.Fatalf("err = %v, want ErrNoChannels", err)
	}
}

func TestDispatchRetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{name: "flaky", failures: 2}
	d := NewDispatcher([]Channel{ch}, fastOpts(), logx.Nop())

	outcomes, err := d.Dispatch(context.Background(), &Message{Subject: "s"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].OK {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if outcomes[0].Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", outcomes[0].Attempts)
	}
}

func TestDispatchPartialFailureStillDelivers(t *testing.T) {
	t.Parallel()
	good := &fakeChannel{name: "good"}
	bad := &fakeChannel{name: "bad", failures: 99}
	d := NewDispatcher([]Channel{bad, good}, fastOpts(), logx.Nop())

	outcomes, err := d.Dispatch(context.Background(), &Message{})
	if err != nil {
		t.Fatalf("Dispatch: %v (one channel delivered)", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	if outcomes[0].OK || outcomes[0].Err == "" {
		t.Fatalf("bad channel outcome = %+v", outcomes[0])
	}
	if !outcomes[1].OK {
		t.Fatalf("good channel outcome = %+v", outcomes[1])
	}
}

func TestDispatchAllFailed(t *testing.T) {
	t.Parallel()
	bad := &fakeChannel{name: "bad", failures: 99}
	d := NewDispatcher([]Channel{bad}, fastOpts(), logx.Nop())

	outcomes, err := d.Dispatch(context.Background(), &Message{})
	if err == nil {
		t.Fatal("expected error when nothing delivered")
	}
	if len(outcomes) != 1 || outcomes[0].OK {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if outcomes[0].Attempts != 3 {
		t.Fatalf("Attempts = %d, want the full retry budget", outcomes[0].Attempts)
	}
}
