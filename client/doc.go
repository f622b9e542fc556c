// Package client is the entry point for talking to the Gemini API or
// Vertex AI.
//
// The Client resolves its configuration once and then provides:
//
//   - Models: content generation (buffered, streamed and typed) and model listing
//   - Files: resumable uploads, metadata, download and deletion (Gemini API only)
//   - Operations: fetching and waiting on long-running operations
//   - Live: bidirectional WebSocket sessions
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
// Create a client with an API key:
//
//	c, err := client.New(ctx, client.Config{
//	    APIKey: os.Getenv("GOOGLE_API_KEY"),
//	})
//
//	resp, err := c.Models.GenerateContent(ctx, "gemini-2.0-flash", "Hello!", nil)
//	fmt.Println(resp.Text())
//
// # Backends
//
// Unset fields fall back to the environment. GOOGLE_GENAI_USE_VERTEXAI
// selects Vertex AI, which is addressed by GOOGLE_CLOUD_PROJECT and
// GOOGLE_CLOUD_LOCATION and authenticated with application default
// credentials unless Credentials, TokenSource or an express-mode APIKey is
// given:
//
//	c, err := client.New(ctx, client.Config{
//	    Backend:  gemkit.BackendVertexAI,
//	    Project:  "my-project",
//	    Location: "us-central1",
//	})
//
// # Per-call Options
//
// Every service method accepts functional options that patch the client's
// HTTP options for one call:
//
//	resp, err := c.Models.GenerateContent(ctx, model, prompt, nil,
//	    gemkit.WithTimeout(30*time.Second),
//	    gemkit.WithHeader("X-Trace", id),
//	)
//
// # Retries
//
// The client never retries. Wrap calls that should be retried:
//
//	resp, err := client.WithRetry(ctx, client.DefaultRetryConfig(), func() (*client.GenerateContentResponse, error) {
//	    return c.Models.GenerateContent(ctx, model, prompt, nil)
//	})
//
// # Events
//
// Observe operations via an event channel:
//
//	events := make(chan client.Event, 100)
//	c, err := client.New(ctx, client.Config{
//	    APIKey: os.Getenv("GOOGLE_API_KEY"),
//	    Events: events,
//	})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s took %v\n", e.Type, e.Operation, e.Duration)
//	    }
//	}()
package client
