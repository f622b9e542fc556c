package client

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transform"
)

// Chats creates multi-turn conversations over Models.
type Chats struct {
	c *Client
}

// Create starts a conversation with model. history seeds the conversation
// and must alternate user and model turns; cfg applies to every turn.
func (cs *Chats) Create(model string, cfg *GenerateContentConfig, history []*gemkit.Content) (*Chat, error) {
	curated, err := curateHistory(history)
	if err != nil {
		return nil, err
	}
	return &Chat{
		models:        cs.c.Models,
		model:         model,
		cfg:           cfg,
		comprehensive: slices.Clone(history),
		curated:       curated,
	}, nil
}

// Chat keeps the history of one conversation. Turns are serialized: a
// message is sent with every valid earlier turn and recorded only once the
// backend has answered.
type Chat struct {
	models *Models
	model  string
	cfg    *GenerateContentConfig

	mu            sync.Mutex
	comprehensive []*gemkit.Content
	curated       []*gemkit.Content
}

// History returns a copy of the conversation. The curated history omits
// turns whose answer was empty or blocked; it is what the next message is
// sent with.
func (c *Chat) History(curated bool) []*gemkit.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	if curated {
		return slices.Clone(c.curated)
	}
	return slices.Clone(c.comprehensive)
}

// SendMessage sends message, any content input, as the next user turn.
func (c *Chat) SendMessage(ctx context.Context, message any, opts ...gemkit.Option) (*GenerateContentResponse, error) {
	input, err := transform.ContentOf(message)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.models.GenerateContent(ctx, c.model, c.turn(input), c.cfg, opts...)
	if err != nil {
		return nil, err
	}
	var output []*gemkit.Content
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].Content != nil {
		output = append(output, resp.Candidates[0].Content)
	}
	c.record(input, output, validResponse(resp))
	return resp, nil
}

// SendMessageStream sends message as the next user turn and streams the
// answer. The turn is recorded when the stream is consumed to the end
// without error; the streamed parts form one model turn.
func (c *Chat) SendMessageStream(ctx context.Context, message any, opts ...gemkit.Option) iter.Seq2[*GenerateContentResponse, error] {
	return func(yield func(*GenerateContentResponse, error) bool) {
		input, err := transform.ContentOf(message)
		if err != nil {
			yield(nil, err)
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()

		valid := true
		answer := &gemkit.Content{Role: gemkit.RoleModel}
		for chunk, err := range c.models.GenerateContentStream(ctx, c.model, c.turn(input), c.cfg, opts...) {
			if err != nil {
				yield(nil, err)
				return
			}
			valid = valid && validResponse(chunk)
			if len(chunk.Candidates) > 0 && chunk.Candidates[0] != nil && chunk.Candidates[0].Content != nil {
				answer.Parts = append(answer.Parts, chunk.Candidates[0].Content.Parts...)
			}
			if !yield(chunk, nil) {
				return
			}
		}

		var output []*gemkit.Content
		if len(answer.Parts) > 0 {
			output = append(output, answer)
		}
		c.record(input, output, valid)
	}
}

// turn returns the contents sent for input. The caller holds mu.
func (c *Chat) turn(input *gemkit.Content) []*gemkit.Content {
	return append(slices.Clone(c.curated), input)
}

// record appends a completed turn. The caller holds mu.
func (c *Chat) record(input *gemkit.Content, output []*gemkit.Content, valid bool) {
	c.comprehensive = append(c.comprehensive, input)
	c.comprehensive = append(c.comprehensive, output...)
	if valid && len(output) > 0 {
		c.curated = append(c.curated, input)
		c.curated = append(c.curated, output...)
	}
}

func validResponse(resp *GenerateContentResponse) bool {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return false
	}
	return validContent(resp.Candidates[0].Content)
}

func validContent(c *gemkit.Content) bool {
	if c == nil || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p == nil || *p == (gemkit.Part{}) {
			return false
		}
	}
	return true
}

// curateHistory drops model turns with empty parts together with the user
// turn that prompted them.
func curateHistory(history []*gemkit.Content) ([]*gemkit.Content, error) {
	var curated []*gemkit.Content
	for i := 0; i < len(history); {
		c := history[i]
		if c == nil {
			return nil, &gemkit.ValueError{Field: "history", Msg: fmt.Sprintf("content %d is nil", i)}
		}
		switch c.Role {
		case gemkit.RoleUser:
			curated = append(curated, c)
			i++
		case gemkit.RoleModel:
			valid := true
			start := i
			for ; i < len(history) && history[i] != nil && history[i].Role == gemkit.RoleModel; i++ {
				valid = valid && validContent(history[i])
			}
			switch {
			case valid:
				curated = append(curated, history[start:i]...)
			case len(curated) > 0:
				curated = curated[:len(curated)-1]
			}
		default:
			return nil, &gemkit.ValueError{Field: "history", Value: c.Role, Msg: "Role must be user or model"}
		}
	}
	return curated, nil
}
