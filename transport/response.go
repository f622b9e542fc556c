package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// dataPrefix marks a server-sent-events payload line.
const dataPrefix = "data: "

// maxSegmentSize bounds a single decoded line.
const maxSegmentSize = 16 << 20

// Response is a received HTTP response. Its body is consumed exactly once,
// by one of JSON, Segments or Bytes.
type Response struct {
	StatusCode int
	Header     http.Header

	body   io.ReadCloser
	cancel context.CancelFunc
}

func newResponse(resp *http.Response, cancel context.CancelFunc) *Response {
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, body: resp.Body, cancel: cancel}
}

// Close releases the body. It is safe to call more than once.
func (r *Response) Close() error {
	if r.cancel != nil {
		defer r.cancel()
	}
	if r.body == nil {
		return nil
	}
	err := r.body.Close()
	r.body = nil
	return err
}

// Bytes reads the whole body and closes it.
func (r *Response) Bytes() ([]byte, error) {
	if r.body == nil {
		return nil, fmt.Errorf("response body already consumed")
	}
	defer r.Close()
	return io.ReadAll(r.body)
}

// JSON reads the whole body as one JSON value. An empty body yields an
// envelope that only carries the response headers.
func (r *Response) JSON() (json.RawMessage, error) {
	b, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return headerEnvelope(r.Header)
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("decode response: invalid JSON body")
	}
	return json.RawMessage(b), nil
}

// Segments returns a reader over the body's newline-delimited JSON values.
// The reader owns the body; close it when done.
func (r *Response) Segments() *SegmentReader {
	body := r.body
	r.body = nil
	return NewSegmentReader(&closeHook{ReadCloser: body, after: r.cancel})
}

func headerEnvelope(h http.Header) (json.RawMessage, error) {
	flat := make(map[string]string, len(h))
	for k, v := range h {
		flat[k] = strings.Join(v, ", ")
	}
	return json.Marshal(map[string]any{"sdkHttpResponse": map[string]any{"headers": flat}})
}

type closeHook struct {
	io.ReadCloser
	after func()
}

func (c *closeHook) Close() error {
	err := c.ReadCloser.Close()
	if c.after != nil {
		c.after()
	}
	return err
}

// SegmentReader decodes a stream of JSON values, one per line. Blank lines
// are skipped and a leading "data: " marker is stripped. It is single pass.
//
//	for sr.Next() {
//	    handle(sr.Segment())
//	}
//	if err := sr.Err(); err != nil { ... }
type SegmentReader struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	current json.RawMessage
	err     error
}

// NewSegmentReader wraps rc. If rc is only an io.Reader, Close is a no-op.
func NewSegmentReader(r io.Reader) *SegmentReader {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), maxSegmentSize)
	return &SegmentReader{rc: rc, scanner: sc}
}

// Next advances to the next segment, returning false at end of stream or on
// error.
func (s *SegmentReader) Next() bool {
	if s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		line = bytes.TrimPrefix(line, []byte(dataPrefix))
		if !gjson.ValidBytes(line) {
			s.err = fmt.Errorf("decode stream segment: invalid JSON %q", truncate(line, 80))
			return false
		}
		if errObj := gjson.GetBytes(line, "error"); errObj.IsObject() {
			s.err = apiErrorFromPayload(errObj, line)
			return false
		}
		s.current = append(json.RawMessage(nil), line...)
		return true
	}
	s.err = s.scanner.Err()
	return false
}

// Segment returns the current segment. Valid until the next call to Next.
func (s *SegmentReader) Segment() json.RawMessage { return s.current }

// Err returns the first error encountered, if any.
func (s *SegmentReader) Err() error { return s.err }

// Close releases the underlying body.
func (s *SegmentReader) Close() error { return s.rc.Close() }

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
