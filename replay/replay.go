// Package replay records HTTP exchanges with the backend to JSON files and
// plays them back. A Recorder sits under the transport as its Doer, so every
// request path, including streams, uploads and downloads, goes through it.
package replay

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transport"
	"github.com/tidwall/gjson"
)

// Mode selects whether the Recorder calls the backend, the recording, or both.
type Mode string

const (
	// ModeRecord calls the backend and writes a new recording on Close.
	ModeRecord Mode = "record"
	// ModeReplay serves only from an existing recording.
	ModeReplay Mode = "replay"
	// ModeAuto replays when a recording exists and records otherwise.
	ModeAuto Mode = "auto"
	// ModeAPI calls the backend without recording.
	ModeAPI Mode = "api"
)

// Request is the recorded, redacted form of a request.
type Request struct {
	Method       string            `json:"method"`
	URL          string            `json:"url"`
	Headers      map[string]string `json:"headers"`
	BodySegments []map[string]any  `json:"body_segments"`
}

// Response is the recorded form of a response. JSON bodies are kept as
// segments; anything else as raw bytes.
type Response struct {
	StatusCode   int               `json:"status_code"`
	Headers      map[string]string `json:"headers"`
	BodySegments []json.RawMessage `json:"body_segments"`
	ByteSegments [][]byte          `json:"byte_segments,omitempty"`
}

// Interaction is one request and its response.
type Interaction struct {
	Request  Request  `json:"request"`
	Response Response `json:"response"`
}

// File is a recorded session.
type File struct {
	ReplayID     string         `json:"replay_id"`
	Interactions []*Interaction `json:"interactions"`
}

// MismatchError reports a request that differs from the recording.
type MismatchError struct {
	ReplayID string
	Index    int
	Diff     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("replay %s: request %d does not match the recording (-recorded +actual):\n%s", e.ReplayID, e.Index, e.Diff)
}

// Recorder is a transport.Doer that records or replays exchanges.
type Recorder struct {
	mode Mode
	id   string
	path string
	next transport.Doer
	log  logrus.FieldLogger

	mu      sync.Mutex
	file    *File
	index   int
	callAPI bool
	started bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Recorder) { r.log = l }
}

// WithNext sets the Doer used to reach the backend (default http.DefaultClient).
func WithNext(d transport.Doer) Option {
	return func(r *Recorder) { r.next = d }
}

// New creates a Recorder for replayID, stored under dir. replayID has the
// form module/function/backend and may have further segments.
func New(mode Mode, replayID, dir string, opts ...Option) (*Recorder, error) {
	switch mode {
	case ModeRecord, ModeReplay, ModeAuto, ModeAPI:
	default:
		return nil, &gemkit.ConfigError{Field: "replay_mode", Msg: fmt.Sprintf("unknown replay mode %q", mode)}
	}
	path, err := FilePath(dir, replayID)
	if err != nil {
		return nil, err
	}
	r := &Recorder{
		mode: mode,
		id:   replayID,
		path: path,
		next: http.DefaultClient,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithField("replay", replayID)
	return r, nil
}

// FilePath maps a replay id to its recording file.
func FilePath(dir, replayID string) (string, error) {
	parts := strings.Split(replayID, "/")
	if len(parts) < 3 {
		return "", &gemkit.ConfigError{
			Field: "replay_id",
			Msg:   fmt.Sprintf("%s: Session ID must be in the format of module/function/[vertex|mldev]", replayID),
		}
	}
	return filepath.Join(append([]string{dir}, parts...)...) + ".json", nil
}

// Path returns the recording file.
func (r *Recorder) Path() string { return r.path }

// start loads or creates the session on first use.
func (r *Recorder) start() error {
	if r.started {
		return nil
	}
	_, statErr := os.Stat(r.path)
	exists := statErr == nil

	r.callAPI = r.mode == ModeRecord || r.mode == ModeAPI || (r.mode == ModeAuto && !exists)
	r.log.WithFields(logrus.Fields{"mode": r.mode, "call_api": r.callAPI}).Debug("replay session started")

	switch {
	case r.mode == ModeReplay && !exists:
		return &gemkit.ConfigError{Field: "replay_id", Msg: "Replay files do not exist for replay id: " + r.id}
	case r.callAPI:
		if r.mode != ModeAPI {
			r.file = &File{ReplayID: r.id}
		}
	default:
		data, err := os.ReadFile(r.path)
		if err != nil {
			return err
		}
		f := &File{}
		if err := json.Unmarshal(data, f); err != nil {
			return fmt.Errorf("read replay %s: %w", r.path, err)
		}
		r.file = f
	}
	r.index = 0
	r.started = true
	return nil
}

// Do serves req from the recording or the backend.
func (r *Recorder) Do(req *http.Request) (*http.Response, error) {
	body, err := readBody(req)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if err := r.start(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	callAPI := r.callAPI
	r.mu.Unlock()

	if !callAPI {
		return r.replay(req, body)
	}

	resp, err := r.next.Do(req)
	if err != nil || r.mode == ModeAPI {
		return resp, err
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	r.mu.Lock()
	r.file.Interactions = append(r.file.Interactions, &Interaction{
		Request:  recordRequest(req, body),
		Response: recordResponse(resp, respBody),
	})
	r.mu.Unlock()
	return resp, nil
}

func (r *Recorder) replay(req *http.Request, body []byte) (*http.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index >= len(r.file.Interactions) {
		return nil, fmt.Errorf("replay %s: no recorded interaction %d for %s %s", r.id, r.index, req.Method, req.URL)
	}
	interaction := r.file.Interactions[r.index]
	actual := recordRequest(req, body)
	if diff := cmp.Diff(interaction.Request, actual); diff != "" {
		return nil, &MismatchError{ReplayID: r.id, Index: r.index, Diff: diff}
	}
	r.index++
	return interaction.Response.httpResponse(req), nil
}

// Close writes the recording when the Recorder called the backend in a
// recording mode. Later requests start a fresh session.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.started = false }()

	if !r.started || !r.callAPI || r.mode == ModeAPI || r.file == nil {
		return nil
	}
	data, err := json.MarshalIndent(r.file, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	r.file = nil
	return os.WriteFile(r.path, data, 0o644)
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil }
	return body, nil
}

func recordRequest(req *http.Request, body []byte) Request {
	segment := map[string]any{}
	switch {
	case len(body) == 0:
	case gjson.ValidBytes(body):
		if err := json.Unmarshal(redactBody(body), &segment); err != nil {
			segment = map[string]any{"bytes": base64.StdEncoding.EncodeToString(body)}
		}
	default:
		segment = map[string]any{"bytes": base64.StdEncoding.EncodeToString(body)}
	}
	return Request{
		Method:       req.Method,
		URL:          redactURL(req.URL.String()),
		Headers:      redactHeaders(req.Header),
		BodySegments: []map[string]any{segment},
	}
}

func recordResponse(resp *http.Response, body []byte) Response {
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if k == "Date" || k == "Server-Timing" {
			continue
		}
		headers[k] = strings.Join(v, ", ")
	}
	out := Response{StatusCode: resp.StatusCode, Headers: headers, BodySegments: []json.RawMessage{}}

	switch {
	case len(body) == 0:
	case isEventStream(headers):
		out.BodySegments = splitSegments(body)
	case gjson.ValidBytes(body):
		out.BodySegments = append(out.BodySegments, json.RawMessage(body))
	default:
		out.ByteSegments = [][]byte{body}
	}
	return out
}

func splitSegments(body []byte) []json.RawMessage {
	var segs []json.RawMessage
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		line = bytes.TrimPrefix(line, []byte("data:"))
		line = bytes.TrimSpace(line)
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		segs = append(segs, json.RawMessage(append([]byte(nil), line...)))
	}
	return segs
}

func isEventStream(headers map[string]string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, "Content-Type") && strings.Contains(v, "text/event-stream") {
			return true
		}
	}
	return false
}

// httpResponse rebuilds a response the transport decodes exactly like the
// recorded one.
func (r Response) httpResponse(req *http.Request) *http.Response {
	header := http.Header{}
	for k, v := range r.Headers {
		header.Set(k, v)
	}

	var body bytes.Buffer
	switch {
	case len(r.ByteSegments) > 0:
		for _, b := range r.ByteSegments {
			body.Write(b)
		}
	case isEventStream(r.Headers):
		for _, seg := range r.BodySegments {
			body.WriteString("data: ")
			body.Write(seg)
			body.WriteString("\n\n")
		}
	default:
		for i, seg := range r.BodySegments {
			if i > 0 {
				body.WriteByte('\n')
			}
			body.Write(seg)
		}
	}

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(&body),
		ContentLength: int64(body.Len()),
		Request:       req,
	}
}

// ErrNotRecording is returned by Interactions when nothing was loaded or
// recorded yet.
var ErrNotRecording = errors.New("replay: no active session")

// Interactions returns the interactions of the active session.
func (r *Recorder) Interactions() ([]*Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil, ErrNotRecording
	}
	return append([]*Interaction(nil), r.file.Interactions...), nil
}
