package gemkit

// Backend identifies which personality of the generative AI service a client talks to.
type Backend string

// String returns the backend identifier.
func (b Backend) String() string { return string(b) }

// Supported backends.
const (
	// BackendUnspecified lets the client pick from the environment.
	BackendUnspecified Backend = ""
	// BackendGeminiAPI is the direct developer API authenticated by API key.
	BackendGeminiAPI Backend = "mldev"
	// BackendVertexAI is the cloud API addressed by project and location.
	BackendVertexAI Backend = "vertex"
)

// IsVertex reports whether b is the cloud personality.
func (b Backend) IsVertex() bool { return b == BackendVertexAI }
