package client

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/live"
)

// Live opens bidirectional live sessions.
type Live struct {
	c *Client

	// Dialer overrides websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Connect opens a session with model and waits for the setup to be
// acknowledged. Per-call options adjust the base URL, API version and
// headers of the handshake.
func (l *Live) Connect(ctx context.Context, model string, cfg *live.ConnectConfig, opts ...gemkit.Option) (*live.Session, error) {
	done := l.c.track(OpLiveConnect, model)
	s, err := live.Connect(ctx, live.Options{
		Personality: l.c.personality,
		HTTPOptions: gemkit.Patch(l.c.transport.HTTPOptions(), callOptions(opts)),
		Credentials: l.c.creds,
		Dialer:      l.Dialer,
		Logger:      l.c.log,
	}, model, cfg)
	done(err, nil)
	return s, err
}
