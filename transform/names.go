package transform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spetersoncode/gemkit"
	"github.com/tidwall/gjson"
)

// DefaultHierarchyDepth is the segment count of a flat collection name such
// as "cachedContents/123".
const DefaultHierarchyDepth = 2

// Model normalizes a model name for p.
func Model(p Personality, name string) (string, error) { return p.Model(name) }

// ResourceName completes name within collection. Names that already start
// with the collection (or, on the cloud backend, with "projects/") are kept;
// bare ids gain the collection prefix only when the result has exactly depth
// segments. Anything else is returned unchanged.
func ResourceName(p Personality, name, collection string, depth int) string {
	if depth <= 0 {
		depth = DefaultHierarchyDepth
	}
	return p.ResourceName(name, collection, depth)
}

// CachedContentName completes a cached content name.
func CachedContentName(p Personality, name string) string {
	return ResourceName(p, name, "cachedContents", DefaultHierarchyDepth)
}

// CachesModel normalizes the model of a cached content. The cloud backend
// only accepts project-qualified model names there.
func CachesModel(p Personality, name string) (string, error) { return p.CachesModel(name) }

// ModelsURL returns the collection to list: base models or tuned models.
func ModelsURL(p Personality, baseModels bool) string { return p.ModelsPath(baseModels) }

// ExtractModels pulls the model list out of a list response, whichever
// collection key it uses.
func ExtractModels(raw json.RawMessage) ([]json.RawMessage, error) {
	res := gjson.ParseBytes(raw)
	if !res.Exists() || (res.IsObject() && len(res.Map()) == 0) {
		return nil, nil
	}
	for _, key := range []string{"models", "tunedModels", "publisherModels"} {
		r := res.Get(key)
		if !r.Exists() {
			continue
		}
		var out []json.RawMessage
		for _, m := range r.Array() {
			out = append(out, json.RawMessage(m.Raw))
		}
		return out, nil
	}
	return nil, &gemkit.ValueError{Field: "models response", Msg: "Cannot determine the models type."}
}

var fileIDPattern = regexp.MustCompile(`^[a-z0-9]+`)

// FileName reduces a file name, "files/" path or file download URI to the
// bare file id used in URL paths.
func FileName(name string) (string, error) {
	if name == "" {
		return "", &gemkit.ValueError{Field: "file name", Msg: "File name is required."}
	}
	switch {
	case strings.HasPrefix(name, "https://"):
		_, suffix, ok := strings.Cut(name, "files/")
		id := fileIDPattern.FindString(suffix)
		if !ok || id == "" {
			return "", &gemkit.ValueError{Field: "file name", Value: name, Msg: "Could not extract file name from URI"}
		}
		return id, nil
	case strings.HasPrefix(name, "files/"):
		return strings.TrimPrefix(name, "files/"), nil
	}
	return name, nil
}

// BatchJobName normalizes a batch job name. The cloud backend addresses
// jobs by their numeric id.
func BatchJobName(p Personality, name string) (string, error) { return p.BatchJobName(name) }

// BatchJobSource maps a gs:// or bq:// URI onto a batch job input config.
func BatchJobSource(src string) (map[string]any, error) {
	switch {
	case strings.HasPrefix(src, "gs://"):
		return map[string]any{"format": "jsonl", "gcsUri": []string{src}}, nil
	case strings.HasPrefix(src, "bq://"):
		return map[string]any{"format": "bigquery", "bigqueryUri": src}, nil
	}
	return nil, &gemkit.ValueError{Field: "batch job source", Value: src, Msg: "Unsupported source"}
}

// BatchJobDestination maps a gs:// or bq:// URI onto a batch job output config.
func BatchJobDestination(dest string) (map[string]any, error) {
	switch {
	case strings.HasPrefix(dest, "gs://"):
		return map[string]any{"format": "jsonl", "gcsUri": dest}, nil
	case strings.HasPrefix(dest, "bq://"):
		return map[string]any{"format": "bigquery", "bigqueryUri": dest}, nil
	}
	return nil, &gemkit.ValueError{Field: "batch job destination", Value: dest, Msg: "Unsupported destination"}
}

// TuningJobStatus maps the direct API's tuned model states onto job states.
func TuningJobStatus(status string) string {
	switch status {
	case "STATE_UNSPECIFIED":
		return "JOB_STATE_UNSPECIFIED"
	case "CREATING":
		return "JOB_STATE_RUNNING"
	case "ACTIVE":
		return "JOB_STATE_SUCCEEDED"
	case "FAILED":
		return "JOB_STATE_FAILED"
	}
	return status
}

func shouldPrependCollection(name, collection string, depth int) bool {
	if strings.HasPrefix(name, collection+"/") {
		return false
	}
	return strings.Count(collection+"/"+name, "/")+1 == depth
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Bytes encodes b for p.
func Bytes(p Personality, b []byte) string { return p.Bytes(b) }

func describe(v any) string { return fmt.Sprintf("%T", v) }
