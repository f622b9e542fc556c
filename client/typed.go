package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transform"
)

// GenerateTyped generates a JSON response constrained to the schema of T
// and unmarshals it into T.
//
// This is a convenience function that combines a response schema and
// json.Unmarshal into a single call:
//
//	// Instead of:
//	schema, _ := transform.SchemaFor[BookInfo](personality)
//	resp, err := c.Models.GenerateContent(ctx, model, prompt, &client.GenerateContentConfig{
//	    ResponseMIMEType: "application/json",
//	    ResponseSchema:   schema,
//	})
//	var book BookInfo
//	json.Unmarshal([]byte(resp.Text()), &book)
//
//	// You can use:
//	book, err := client.GenerateTyped[BookInfo](ctx, c, model, prompt, nil)
//
// Other fields of cfg are passed through; its schema and MIME type are
// replaced.
func GenerateTyped[T any](ctx context.Context, c *Client, model string, contents any, cfg *GenerateContentConfig, opts ...gemkit.Option) (T, error) {
	var zero T

	t := reflect.TypeOf(zero)
	if t == nil {
		return zero, fmt.Errorf("GenerateTyped: cannot use nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema, err := transform.SchemaFor[T](c.personality)
	if err != nil {
		return zero, fmt.Errorf("GenerateTyped: failed to generate schema: %w", err)
	}

	typed := GenerateContentConfig{}
	if cfg != nil {
		typed = *cfg
	}
	typed.ResponseMIMEType = "application/json"
	typed.ResponseSchema = schema

	resp, err := c.Models.GenerateContent(ctx, model, contents, &typed, opts...)
	if err != nil {
		return zero, err
	}

	var result T
	text := resp.Text()
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return zero, &UnmarshalError{
			Content:    text,
			TargetType: t.String(),
			Err:        err,
		}
	}
	return result, nil
}

// UnmarshalError is returned when the model response cannot be unmarshaled
// into the target type.
type UnmarshalError struct {
	Content    string
	TargetType string
	Err        error
}

func (e *UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal response into %s: %v", e.TargetType, e.Err)
}

func (e *UnmarshalError) Unwrap() error {
	return e.Err
}
