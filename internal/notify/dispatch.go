package notify

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	logx "samplewatch/pkg/logx"
)

var ErrNoChannels = errors.New("no delivery channels configured")

// Message is the rendered notification handed to each channel. Channels
// pick the representation they need (HTML body, chat text, chart).
type Message struct {
	Subject  string
	HTML     string
	Text     string
	ChartPNG []byte
}

// Channel delivers one message to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// Outcome records how one channel fared, including retries.
type Outcome struct {
	Channel  string `json:"channel"`
	OK       bool   `json:"ok"`
	Attempts int    `json:"attempts"`
	Err      string `json:"err,omitempty"`
}

// Dispatcher fans one message out to every channel concurrently, with
// per-channel retry. Delivery is the last, least critical step of a
// run: the dispatcher reports failures but the caller treats them as
// degradations, never as run failures.
type Dispatcher struct {
	channels []Channel
	log      logx.Logger

	retryMax      int
	retryBase     time.Duration
	retryMaxDelay time.Duration
}

// DispatcherOptions configures retry policy.
type DispatcherOptions struct {
	RetryMax      int           // total attempts per channel; <=0 means 3
	RetryBase     time.Duration // <=0 means 500ms
	RetryMaxDelay time.Duration // <=0 means 10s
}

func NewDispatcher(channels []Channel, opt DispatcherOptions, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	if opt.RetryMax <= 0 {
		opt.RetryMax = 3
	}
	if opt.RetryBase <= 0 {
		opt.RetryBase = 500 * time.Millisecond
	}
	if opt.RetryMaxDelay <= 0 {
		opt.RetryMaxDelay = 10 * time.Second
	}
	return &Dispatcher{
		channels:      channels,
		log:           log,
		retryMax:      opt.RetryMax,
		retryBase:     opt.RetryBase,
		retryMaxDelay: opt.RetryMaxDelay,
	}
}

// Dispatch sends msg to every channel. It returns one Outcome per
// channel plus an error only when no channel accepted the message
// (nothing was delivered).
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) ([]Outcome, error) {
	if len(d.channels) == 0 {
		return nil, ErrNoChannels
	}

	outcomes := make([]Outcome, len(d.channels))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range d.channels {
		i, ch := i, ch
		g.Go(func() error {
			out := d.sendWithRetry(gctx, ch, msg)
			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
			// A failed channel must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	delivered := 0
	for _, out := range outcomes {
		if out.OK {
			delivered++
		}
	}
	if delivered == 0 {
		return outcomes, errors.New("all delivery channels failed")
	}
	return outcomes, nil
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, ch Channel, msg *Message) Outcome {
	out := Outcome{Channel: ch.Name()}
	for attempt := 1; attempt <= d.retryMax; attempt++ {
		out.Attempts = attempt
		err := ch.Send(ctx, msg)
		if err == nil {
			out.OK = true
			out.Err = ""
			d.log.Info("notification sent",
				logx.String("channel", ch.Name()),
				logx.Int("attempts", attempt),
			)
			return out
		}
		out.Err = err.Error()
		if attempt >= d.retryMax || ctx.Err() != nil {
			break
		}

		delay := retryDelay(d.retryBase, d.retryMaxDelay, attempt)
		d.log.Warn("notification send failed, retrying",
			logx.String("channel", ch.Name()),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		select {
		case <-ctx.Done():
			return out
		case <-time.After(delay):
		}
	}
	d.log.Error("notification delivery failed",
		logx.String("channel", ch.Name()),
		logx.Int("attempts", out.Attempts),
		logx.String("err", out.Err),
	)
	return out
}

func retryDelay(base, maxD time.Duration, attempt int) time.Duration {
	// attempt starts at 1 (first attempt), delay is for the NEXT attempt.
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	// Jitter 0.7..1.3 to avoid synchronized retries across channels.
	j := 0.7 + rand.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d > maxD {
		d = maxD
	}
	if d < 0 {
		d = 0
	}
	return d
}
