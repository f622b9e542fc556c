// Package gemkit holds the types shared by every layer of the generative AI
// client: the backend identifiers, HTTP options and their patching rules,
// per-call functional options, the content payload types and the error
// taxonomy.
//
// Two backends are supported. The Gemini API is addressed directly and
// authenticated with an API key; Vertex AI is addressed by project and
// location and authenticated with refreshable OAuth2 credentials (or an
// API key in express mode). The choice of backend is made once, when the
// client is built, and determines URL layout, resource naming and payload
// encoding everywhere below.
//
// Use the [github.com/spetersoncode/gemkit/client] package as the entry
// point:
//
//	c, err := client.New(ctx, client.Config{APIKey: os.Getenv("GOOGLE_API_KEY")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := c.Models.GenerateContent(ctx, "gemini-2.0-flash", "What is the capital of France?", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text())
//
// # Options
//
// [HTTPOptions] set on the client are the defaults of every request. A
// call may override them with functional options; unset fields inherit
// and headers merge key by key:
//
//	resp, err := c.Models.GenerateContent(ctx, model, prompt, nil,
//	    gemkit.WithAPIVersion("v1alpha"),
//	    gemkit.WithTimeout(30*time.Second),
//	)
//
// # Error Handling
//
// Non-2xx responses surface as [*APIError], which implements
// [CategorizedError]:
//
//	resp, err := c.Models.GenerateContent(ctx, model, prompt, nil)
//	if err != nil {
//	    switch {
//	    case gemkit.IsTransient(err):
//	        // rate limited or server side; safe to retry
//	    case gemkit.IsUserInput(err):
//	        // fix the request
//	    }
//	}
//
// Construction problems are [*ConfigError], credential failures
// [*AuthError], and transformer input problems [*ValueError]. Live sessions
// report [*LiveError] wrapping one of the Err sentinels.
//
// # Subpackages
//
//   - client: configuration resolution and the Models, Files, Operations and Live services
//   - creds: API key and OAuth2 credential management
//   - transport: URL composition, buffered and streamed requests, resumable uploads
//   - transform: backend-specific normalization of names and payloads
//   - operation: long-running operation polling
//   - live: bidirectional WebSocket sessions
//   - replay: recording and replaying HTTP exchanges
//   - retry: backoff schedules and caller-side retries
package gemkit
