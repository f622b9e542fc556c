// Package live implements bidirectional sessions over WebSocket. A session
// sends a setup frame, waits for the server's acknowledgement and then lets
// callers send client messages while receiving decoded server messages.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/creds"
	"github.com/spetersoncode/gemkit/transform"
)

const closeWait = time.Second

// Options carry what Connect needs from the client.
type Options struct {
	Personality transform.Personality
	HTTPOptions gemkit.HTTPOptions
	Credentials *creds.Manager
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	Logger logrus.FieldLogger
}

// Session is an open live connection. Sends may be called from any
// goroutine; receives are meant for a single consumer.
type Session struct {
	id          string
	personality transform.Personality
	table       []rename
	conn        *websocket.Conn
	log         logrus.FieldLogger

	writeMu sync.Mutex
	frames  chan []byte
	readErr error // set before frames is closed
	closing chan struct{}
	closed  atomic.Bool
	once    sync.Once
}

// Connect dials the backend, sends the setup frame for model and waits for
// the acknowledgement. Any failure closes the socket.
func Connect(ctx context.Context, opts Options, model string, cfg *ConnectConfig) (*Session, error) {
	p := opts.Personality
	if p == nil {
		p = transform.GeminiAPI()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	setup, err := setupMessage(p, model, cfg)
	if err != nil {
		return nil, err
	}
	uri, header, err := dialTarget(ctx, p.Backend(), opts)
	if err != nil {
		return nil, err
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, uri, header)
	if err != nil {
		if resp != nil {
			return nil, &gemkit.LiveError{Msg: "dial: " + resp.Status, Cause: err}
		}
		return nil, &gemkit.LiveError{Msg: "dial", Cause: err}
	}

	s := &Session{
		id:          uuid.NewString(),
		personality: p,
		table:       fieldsFor(p.Backend()),
		conn:        conn,
		frames:      make(chan []byte, 16),
		closing:     make(chan struct{}),
	}
	s.log = log.WithFields(logrus.Fields{"session": s.id, "backend": p.Backend().String()})
	go s.readPump()

	if err := s.handshake(ctx, setup); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func dialTarget(ctx context.Context, backend gemkit.Backend, opts Options) (string, http.Header, error) {
	header := opts.HTTPOptions.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	c := opts.Credentials
	if c == nil {
		return "", nil, &gemkit.ConfigError{Field: "credentials", Msg: "credentials are required to connect"}
	}

	var apiKey string
	switch {
	case c.Kind() == creds.KindAPIKey:
		apiKey = c.APIKey()
	case backend.IsVertex():
		tok, err := c.Token(ctx)
		if err != nil {
			return "", nil, err
		}
		header.Set("Authorization", "Bearer "+tok)
	default:
		return "", nil, &gemkit.ConfigError{Field: "api_key", Msg: "the Gemini API requires an API key"}
	}

	uri, err := endpoint(opts.HTTPOptions, apiKey)
	if err != nil {
		return "", nil, err
	}
	return uri, header, nil
}

func (s *Session) handshake(ctx context.Context, setup map[string]any) error {
	data, err := json.Marshal(setup)
	if err != nil {
		return err
	}
	if err := s.writeFrame(ctx, data); err != nil {
		return err
	}
	frame, err := s.nextFrame(ctx)
	if err != nil {
		return err
	}
	if !isSetupComplete(frame) {
		return &gemkit.LiveError{Msg: "unexpected setup response: " + string(truncate(frame, 200))}
	}
	s.log.Debug("live setup complete")
	return nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) readPump() {
	defer close(s.frames)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			return
		}
		select {
		case s.frames <- data:
		case <-s.closing:
			return
		}
	}
}

func (s *Session) nextFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame, ok := <-s.frames:
		if !ok {
			msg := "receive"
			if s.readErr != nil {
				msg = s.readErr.Error()
			}
			return nil, &gemkit.LiveError{Msg: msg, Cause: gemkit.ErrConnectionClosed}
		}
		return frame, nil
	}
}

func (s *Session) writeFrame(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return &gemkit.LiveError{Msg: "send", Cause: gemkit.ErrConnectionClosed}
	}
	deadline, _ := ctx.Deadline()
	_ = s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &gemkit.LiveError{Msg: err.Error(), Cause: gemkit.ErrConnectionClosed}
	}
	return nil
}

// SendMessage writes one frame.
func (s *Session) SendMessage(ctx context.Context, msg *ClientMessage) error {
	data, err := json.Marshal(msg.wire(s.personality))
	if err != nil {
		return err
	}
	return s.writeFrame(ctx, data)
}

// Send normalizes input with ParseClientMessage and writes it.
func (s *Session) Send(ctx context.Context, input any, endOfTurn bool) error {
	msg, err := ParseClientMessage(s.personality, input, endOfTurn)
	if err != nil {
		return err
	}
	if msg.endOfTurnOnly() && isEmptyInput(input) {
		s.log.Info("no input provided, assuming end of turn")
	}
	return s.SendMessage(ctx, msg)
}

// SendClientContent appends turns to the conversation. turns may be nil to
// only signal turnComplete.
func (s *Session) SendClientContent(ctx context.Context, turns any, turnComplete bool) error {
	cc := &ClientContent{TurnComplete: turnComplete}
	if turns != nil {
		contents, err := contentsStrict(turns)
		if err != nil {
			return err
		}
		cc.Turns = contents
	}
	return s.SendMessage(ctx, &ClientMessage{ClientContent: cc})
}

// SendRealtimeInput streams one media chunk.
func (s *Session) SendRealtimeInput(ctx context.Context, media any) error {
	b, ok := blobOf(media)
	if !ok {
		return &gemkit.ValueError{Field: "media", Value: fmt.Sprintf("%T", media), Msg: "could not convert input to Blob"}
	}
	return s.SendMessage(ctx, realtime(b))
}

// SendToolResponse answers function calls.
func (s *Session) SendToolResponse(ctx context.Context, responses ...*gemkit.FunctionResponse) error {
	msg, err := toolResponse(s.personality, responses...)
	if err != nil {
		return err
	}
	return s.SendMessage(ctx, msg)
}

// ReceiveMessage returns the next server message. An unparsable frame is
// reported without closing the session.
func (s *Session) ReceiveMessage(ctx context.Context) (*ServerMessage, error) {
	frame, err := s.nextFrame(ctx)
	if err != nil {
		return nil, err
	}
	return decodeServerMessage(s.table, frame)
}

// Receive yields messages until one completes the model's turn. The session
// stays open; calling Receive again continues with the next turn.
func (s *Session) Receive(ctx context.Context) iter.Seq2[*ServerMessage, error] {
	return func(yield func(*ServerMessage, error) bool) {
		for {
			msg, err := s.ReceiveMessage(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(msg, nil) || msg.TurnComplete() {
				return
			}
		}
	}
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.writeMu.Lock()
		s.closed.Store(true)
		close(s.closing)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		s.writeMu.Unlock()
		err = s.conn.Close()
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
		s.log.Debug("live session closed")
	})
	return err
}
