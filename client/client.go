package client

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/creds"
	"github.com/spetersoncode/gemkit/operation"
	"github.com/spetersoncode/gemkit/replay"
	"github.com/spetersoncode/gemkit/transform"
	"github.com/spetersoncode/gemkit/transport"
)

// Client talks to one backend personality. It is safe for concurrent use.
type Client struct {
	backend     gemkit.Backend
	modelGarden bool
	personality transform.Personality
	creds       *creds.Manager
	transport   *transport.Client
	recorder    *replay.Recorder
	poller      *operation.Poller
	log         logrus.FieldLogger
	events      chan<- Event

	Models     *Models
	Chats      *Chats
	Files      *Files
	Operations *Operations
	Live       *Live
}

// New resolves cfg against the environment and creates a client. Vertex AI
// clients without a project or API key load application default
// credentials here to discover the project.
func New(ctx context.Context, cfg Config) (*Client, error) {
	s, err := resolveConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log := s.log.WithField("backend", s.backend.String())

	c := &Client{
		backend:     s.backend,
		modelGarden: s.modelGarden,
		personality: transform.For(s.backend, s.project, s.location),
		creds:       s.creds,
		recorder:    s.recorder,
		log:         log,
		events:      cfg.Events,
	}
	c.transport = transport.New(transport.Config{
		Backend:     s.backend,
		Project:     s.project,
		Location:    s.location,
		Credentials: s.creds,
		HTTPOptions: s.httpOptions,
		HTTPClient:  s.doer,
		Logger:      s.log,
	})
	c.Models = &Models{c: c}
	c.Chats = &Chats{c: c}
	c.Files = &Files{c: c}
	c.Operations = &Operations{c: c}
	c.Live = &Live{c: c}
	c.poller = operation.NewPoller(c.Operations.fetch, operation.WithConfig(s.pollConfig), operation.WithLogger(log))
	return c, nil
}

// Backend returns the personality the client talks to.
func (c *Client) Backend() gemkit.Backend { return c.backend }

// Project returns the resolved cloud project ("" for the Gemini API).
func (c *Client) Project() string { return c.transport.Project() }

// Location returns the resolved cloud location.
func (c *Client) Location() string { return c.transport.Location() }

// HTTPOptions returns a copy of the effective client-level options.
func (c *Client) HTTPOptions() gemkit.HTTPOptions { return c.transport.HTTPOptions() }

// Close flushes a replay recording, if one is active.
func (c *Client) Close() error {
	if c.recorder == nil {
		return nil
	}
	return c.recorder.Close()
}

// callOptions turns per-call options into an HTTPOptions override.
func callOptions(opts []gemkit.Option) gemkit.HTTPOptions {
	return gemkit.ApplyOptions(opts...).HTTPOptions
}

func (c *Client) requireGeminiAPI() error {
	if c.backend.IsVertex() {
		return &gemkit.ConfigError{Field: "backend", Msg: "This method is only supported in the Gemini Developer client."}
	}
	return nil
}
