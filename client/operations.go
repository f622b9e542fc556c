package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/operation"
)

// Operations fetches and waits on long-running operations.
type Operations struct {
	c *Client
}

// Get fetches the current state of the operation called name.
func (o *Operations) Get(ctx context.Context, name string, opts ...gemkit.Option) (json.RawMessage, error) {
	done := o.c.track(OpGetOperation, "")
	raw, err := o.get(ctx, name, callOptions(opts))
	done(err, nil)
	return raw, err
}

func (o *Operations) fetch(ctx context.Context, name string) (json.RawMessage, error) {
	return o.get(ctx, name, gemkit.HTTPOptions{})
}

// get reads the operation directly on the Gemini API. On Vertex AI,
// operations of a model resource are read through fetchPredictOperation on
// that model.
func (o *Operations) get(ctx context.Context, name string, override gemkit.HTTPOptions) (json.RawMessage, error) {
	if name == "" {
		return nil, &gemkit.ValueError{Field: "operation name", Msg: "Operation name is empty."}
	}
	if o.c.backend.IsVertex() {
		if resource, _, ok := strings.Cut(name, "/operations/"); ok && strings.Contains(resource, "/models/") {
			body := map[string]any{"operationName": name}
			return o.c.transport.Request(ctx, http.MethodPost, resource+":fetchPredictOperation", body, override)
		}
	}
	return o.c.transport.Request(ctx, http.MethodGet, name, nil, override)
}

// Wait polls handle until the operation is done and returns the final
// handle. A failed operation yields *gemkit.OperationFailedError; running
// past the polling timeout yields *gemkit.OperationTimeoutError.
func (o *Operations) Wait(ctx context.Context, handle json.RawMessage) (json.RawMessage, error) {
	done := o.c.track(OpWaitOperation, "")
	op, err := o.c.poller.Wait(ctx, handle)
	done(err, nil)
	return op, err
}

// Resolve returns raw unchanged unless it is an operation handle, in which
// case it waits for the operation and returns its response.
func (o *Operations) Resolve(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	if !operation.IsOperationHandle(raw) {
		return raw, nil
	}
	done := o.c.track(OpWaitOperation, "")
	resp, err := o.c.poller.Resolve(ctx, raw)
	done(err, nil)
	return resp, err
}
