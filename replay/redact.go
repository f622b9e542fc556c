package replay

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const redacted = "{REDACTED}"

var (
	versionNumber   = regexp.MustCompile(`\d+\.\d+\.\d+`)
	languageLabel   = regexp.MustCompile(`gl-go/`)
	projectLocation = regexp.MustCompile(`projects/[^/]+/locations/[^/]+/`)

	urlPrefixes = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`.*/projects/[^/]+/locations/[^/]+/`), "{VERTEX_URL_PREFIX}/"},
		{regexp.MustCompile(`.*-aiplatform\.googleapis\.com/[^/]+/`), "{VERTEX_URL_PREFIX}/"},
		{regexp.MustCompile(`.*aiplatform\.googleapis\.com/[^/]+/`), "{VERTEX_URL_PREFIX}/"},
		{regexp.MustCompile(`https://generativelanguage\.googleapis\.com/[^/]+`), "{MLDEV_URL_PREFIX}"},
	}
)

// redactHeaders flattens h into a recordable map, hiding secrets and the
// parts of identity headers that change between releases.
func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		value := strings.Join(v, ", ")
		switch strings.ToLower(k) {
		case "x-goog-api-key", "authorization":
			value = redacted
		case "user-agent", "x-goog-api-client":
			value = languageLabel.ReplaceAllString(versionNumber.ReplaceAllString(value, "{VERSION_NUMBER}"), "{LANGUAGE_LABEL}/")
		}
		out[k] = value
	}
	return out
}

// redactURL removes the host, version and project scoping before the
// resource path so recordings work across projects and environments.
func redactURL(u string) string {
	for _, p := range urlPrefixes {
		u = p.re.ReplaceAllString(u, p.repl)
	}
	return u
}

// redactBody rewrites project/location paths in top-level string values.
// body is not modified.
func redactBody(body []byte) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return body
	}
	var keys []string
	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String && strings.Contains(value.Str, "projects/") && strings.Contains(value.Str, "locations/") {
			keys = append(keys, key.Str)
		}
		return true
	})
	sort.Strings(keys)

	out := append([]byte(nil), body...)
	for _, k := range keys {
		path := escapePath(k)
		v := gjson.GetBytes(body, path).Str
		next, err := sjson.SetBytes(out, path, projectLocation.ReplaceAllString(v, "{PROJECT_AND_LOCATION_PATH}/"))
		if err != nil {
			return body
		}
		out = next
	}
	return out
}

func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`\.*?|#@!`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
