// Package operation resolves long-running operation handles by polling
// until they complete.
package operation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/internal/clock"
	"github.com/spetersoncode/gemkit/retry"
	"github.com/tidwall/gjson"
)

// Fetcher retrieves the current state of the operation called name.
type Fetcher func(ctx context.Context, name string) (json.RawMessage, error)

// IsOperationHandle reports whether raw is an operation handle: an object
// whose "name" contains "/operations/".
func IsOperationHandle(raw json.RawMessage) bool {
	name := gjson.GetBytes(raw, "name")
	return name.Type == gjson.String && strings.Contains(name.Str, "/operations/")
}

// Name returns the operation name of a handle.
func Name(raw json.RawMessage) string {
	return gjson.GetBytes(raw, "name").String()
}

// Done reports whether the handle's "done" flag is true.
func Done(raw json.RawMessage) bool {
	return gjson.GetBytes(raw, "done").Type == gjson.True
}

// Poller waits for operations to finish.
type Poller struct {
	fetch Fetcher
	cfg   retry.Config
	clock clock.Clock
	log   logrus.FieldLogger
}

// Option configures a Poller.
type Option func(*Poller)

// WithConfig replaces the polling schedule (default [retry.PollConfig]).
func WithConfig(cfg retry.Config) Option {
	return func(p *Poller) { p.cfg = cfg }
}

// WithLogger sets the logger for poll iterations.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPoller creates a Poller that refreshes handles through fetch.
func NewPoller(fetch Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetch: fetch,
		cfg:   retry.PollConfig(),
		clock: clock.Real(),
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns raw unchanged unless it is an operation handle. A handle
// is re-fetched, with growing pauses between fetches, until it reports done;
// the operation's "response" is then returned, or nil if it has none.
// A completed operation carrying "error" yields *gemkit.OperationFailedError
// and running past the timeout yields *gemkit.OperationTimeoutError.
func (p *Poller) Resolve(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	if !IsOperationHandle(raw) {
		return raw, nil
	}
	op, err := p.Wait(ctx, raw)
	if err != nil {
		return nil, err
	}
	resp := gjson.GetBytes(op, "response")
	if !resp.Exists() {
		return nil, nil
	}
	return json.RawMessage(resp.Raw), nil
}

// Wait polls the handle until done and returns the final handle.
func (p *Poller) Wait(ctx context.Context, handle json.RawMessage) (json.RawMessage, error) {
	name := Name(handle)
	log := p.log.WithField("operation", name)
	op := handle
	start := p.clock.Now()

	for attempt := 0; !Done(op); attempt++ {
		elapsed := p.clock.Now().Sub(start)
		if p.cfg.Timeout > 0 && elapsed > p.cfg.Timeout {
			return nil, &gemkit.OperationTimeoutError{Name: name, Elapsed: elapsed, Last: op}
		}

		next, err := p.fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		op = next
		if Done(op) {
			break
		}

		delay := p.cfg.Delay(attempt)
		log.WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Debug("operation pending")
		if err := retry.Sleep(ctx, p.clock, delay); err != nil {
			return nil, err
		}
	}

	if e := gjson.GetBytes(op, "error"); e.Exists() && e.Type != gjson.Null {
		return nil, &gemkit.OperationFailedError{
			Name:    name,
			Code:    int(e.Get("code").Int()),
			Message: e.Get("message").String(),
			Last:    op,
		}
	}
	return op, nil
}
