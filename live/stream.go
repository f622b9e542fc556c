package live

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/spetersoncode/gemkit"
	"golang.org/x/sync/errgroup"
)

// StreamEvent is one item of a StartStream result: a message or, last, the
// error that ended the stream.
type StreamEvent struct {
	Message *ServerMessage
	Err     error
}

// StartStream forwards every chunk read from input as realtime media of
// mimeType while delivering server messages on the returned channel. When
// input is closed the pending receive is cancelled and the channel closes.
// A connection closed after input is exhausted ends the stream quietly;
// other failures, including a connection closed while input is still open,
// arrive as a final event with Err set.
func (s *Session) StartStream(ctx context.Context, input <-chan []byte, mimeType string) <-chan StreamEvent {
	out := make(chan StreamEvent)

	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		recvCtx, stopReceiving := context.WithCancel(gctx)
		defer stopReceiving()
		var drained atomic.Bool

		g.Go(func() error {
			defer stopReceiving()
			for {
				select {
				case <-gctx.Done():
					return ctx.Err()
				case data, ok := <-input:
					if !ok {
						drained.Store(true)
						return nil
					}
					if err := s.SendRealtimeInput(gctx, &gemkit.Blob{Data: data, MIMEType: mimeType}); err != nil {
						return err
					}
				}
			}
		})

		g.Go(func() error {
			for {
				msg, err := s.ReceiveMessage(recvCtx)
				if err != nil {
					if recvCtx.Err() != nil && errors.Is(err, recvCtx.Err()) {
						return nil
					}
					return err
				}
				select {
				case out <- StreamEvent{Message: msg}:
				case <-recvCtx.Done():
					return nil
				}
			}
		})

		err := g.Wait()
		if err == nil || (errors.Is(err, gemkit.ErrConnectionClosed) && drained.Load()) {
			return
		}
		select {
		case out <- StreamEvent{Err: err}:
		case <-ctx.Done():
		}
	}()

	return out
}
