// Package transform normalizes caller-supplied names and payloads into the
// wire shapes each backend expects. Every function is pure; the backend
// specific choices live behind a [Personality].
package transform

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/spetersoncode/gemkit"
)

// Personality captures how one backend names resources and encodes payloads.
// It is chosen once per client; callers never branch on the backend.
type Personality interface {
	// Backend identifies the personality.
	Backend() gemkit.Backend
	// Model normalizes a model name into the backend's resource form.
	Model(name string) (string, error)
	// CachesModel normalizes the model a cached content refers to.
	CachesModel(name string) (string, error)
	// ResourceName completes name within collection. depth is the number
	// of segments a complete collection-relative name has (2 for
	// "cachedContents/123").
	ResourceName(name, collection string, depth int) string
	// Qualify scopes a collection-relative path to the caller's project
	// and location where the backend requires it.
	Qualify(path string) string
	// ModelsPath is the collection listing base or tuned models.
	ModelsPath(baseModels bool) string
	// BatchJobName normalizes a batch job name for URL paths.
	BatchJobName(name string) (string, error)
	// Content renders a content as its wire object.
	Content(c *gemkit.Content) map[string]any
	// Bytes encodes binary payload data.
	Bytes(b []byte) string
	// StripsSchemaTitles reports whether "title" must be removed from schemas.
	StripsSchemaTitles() bool
	// RequiresCallIDs reports whether live tool responses must carry the
	// id of the call they answer.
	RequiresCallIDs() bool
	// SendsLabels reports whether request labels are accepted.
	SendsLabels() bool
	// SendsTranscription reports whether live sessions accept audio
	// transcription settings.
	SendsTranscription() bool
}

// For returns the personality for backend. project and location are only
// used by the cloud personality; an empty project selects express mode.
func For(backend gemkit.Backend, project, location string) Personality {
	if backend.IsVertex() {
		return VertexAI(project, location)
	}
	return GeminiAPI()
}

// GeminiAPI returns the direct API personality.
func GeminiAPI() Personality { return gemini{} }

// VertexAI returns the cloud personality scoped to project and location.
func VertexAI(project, location string) Personality {
	return vertex{project: project, location: location}
}

// VertexAIExpress returns the cloud personality for API key ("express")
// mode. Express mode has no project, so names are never qualified and live
// sessions use the key endpoint and setup.
func VertexAIExpress() Personality { return vertex{} }

type gemini struct{}

func (gemini) Backend() gemkit.Backend { return gemkit.BackendGeminiAPI }

func (gemini) Model(name string) (string, error) {
	if name == "" {
		return "", &gemkit.ValueError{Field: "model", Msg: "model is required"}
	}
	if hasAnyPrefix(name, "models/", "tunedModels/") {
		return name, nil
	}
	return "models/" + name, nil
}

func (g gemini) CachesModel(name string) (string, error) { return g.Model(name) }

func (gemini) ResourceName(name, collection string, depth int) string {
	if shouldPrependCollection(name, collection, depth) {
		return collection + "/" + name
	}
	return name
}

func (gemini) Qualify(path string) string { return path }

func (gemini) ModelsPath(baseModels bool) string {
	if baseModels {
		return "models"
	}
	return "tunedModels"
}

func (gemini) BatchJobName(name string) (string, error) { return name, nil }

func (g gemini) Content(c *gemkit.Content) map[string]any { return renderContent(g, c, true) }

// The direct API takes the URL-safe alphabet for inline bytes.
func (gemini) Bytes(b []byte) string { return base64.URLEncoding.EncodeToString(b) }

func (gemini) StripsSchemaTitles() bool { return true }
func (gemini) RequiresCallIDs() bool    { return true }
func (gemini) SendsLabels() bool        { return false }
func (gemini) SendsTranscription() bool { return false }

type vertex struct {
	project  string
	location string
}

func (v vertex) express() bool { return v.project == "" }

func (vertex) Backend() gemkit.Backend { return gemkit.BackendVertexAI }

func (vertex) Model(name string) (string, error) {
	if name == "" {
		return "", &gemkit.ValueError{Field: "model", Msg: "model is required"}
	}
	if hasAnyPrefix(name, "projects/", "models/", "publishers/") {
		return name, nil
	}
	if publisher, id, ok := strings.Cut(name, "/"); ok {
		return fmt.Sprintf("publishers/%s/models/%s", publisher, id), nil
	}
	return "publishers/google/models/" + name, nil
}

// Cached contents only accept project-qualified model names.
func (v vertex) CachesModel(name string) (string, error) {
	model, err := v.Model(name)
	if err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(model, "publishers/"):
		return v.Qualify(model), nil
	case strings.HasPrefix(model, "models/"):
		return v.Qualify("publishers/google/" + model), nil
	}
	return model, nil
}

func (v vertex) ResourceName(name, collection string, depth int) string {
	switch {
	case hasAnyPrefix(name, "projects/"):
		return name
	case hasAnyPrefix(name, "locations/"):
		if v.express() {
			return name
		}
		return fmt.Sprintf("projects/%s/%s", v.project, name)
	case hasAnyPrefix(name, collection+"/"):
		return v.Qualify(name)
	case shouldPrependCollection(name, collection, depth):
		return v.Qualify(collection + "/" + name)
	default:
		return name
	}
}

func (v vertex) Qualify(path string) string {
	if v.express() {
		return path
	}
	return fmt.Sprintf("projects/%s/locations/%s/%s", v.project, v.location, path)
}

func (vertex) ModelsPath(baseModels bool) string {
	if baseModels {
		return "publishers/google/models"
	}
	return "models"
}

var batchJobPattern = regexp.MustCompile(`^projects/[^/]+/locations/[^/]+/batchPredictionJobs/[^/]+$`)

// The cloud backend addresses batch jobs by their numeric id.
func (vertex) BatchJobName(name string) (string, error) {
	if batchJobPattern.MatchString(name) {
		return name[strings.LastIndex(name, "/")+1:], nil
	}
	if name != "" && strings.Trim(name, "0123456789") == "" {
		return name, nil
	}
	return "", &gemkit.ValueError{Field: "batch job name", Value: name}
}

// Call ids are not accepted inside cloud contents.
func (v vertex) Content(c *gemkit.Content) map[string]any { return renderContent(v, c, false) }

func (vertex) Bytes(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func (vertex) StripsSchemaTitles() bool { return false }
func (vertex) RequiresCallIDs() bool    { return false }
func (vertex) SendsLabels() bool        { return true }

// Express mode live sessions speak the key endpoint's setup, which has no
// transcription settings.
func (v vertex) SendsTranscription() bool { return !v.express() }
