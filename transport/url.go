package transport

import (
	"net/url"
	"strings"

	"github.com/spetersoncode/gemkit"
)

// JoinURL composes baseURL, apiVersion and a resource path into a request
// URL. Slashes at the seams are collapsed so "https://host/", "v1" and
// "/models/foo" give "https://host/v1/models/foo". An empty apiVersion is
// skipped. A query string on resource is merged with any query on baseURL.
func JoinURL(baseURL, apiVersion, resource string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", &gemkit.ConfigError{Field: "base_url", Msg: err.Error()}
	}

	resource = strings.TrimLeft(resource, "/")
	var query string
	if i := strings.IndexByte(resource, '?'); i >= 0 {
		resource, query = resource[:i], resource[i+1:]
	}

	segs := []string{strings.TrimRight(u.Path, "/")}
	if v := strings.Trim(apiVersion, "/"); v != "" {
		segs = append(segs, v)
	}
	segs = append(segs, resource)
	u.Path = strings.Join(segs, "/")
	u.RawPath = ""

	switch {
	case query == "":
	case u.RawQuery == "":
		u.RawQuery = query
	default:
		u.RawQuery += "&" + query
	}
	return u.String(), nil
}

// needsProjectPrefix reports whether a cloud resource path must be qualified
// with the client's project and location.
func needsProjectPrefix(backend gemkit.Backend, hasAPIKey bool, method, path string) bool {
	if !backend.IsVertex() || hasAPIKey {
		return false
	}
	if strings.HasPrefix(path, "projects/") {
		return false
	}
	// Base models are listed from the publisher collection, outside any project.
	if strings.EqualFold(method, "GET") && strings.HasPrefix(path, "publishers/google/models") {
		return false
	}
	return true
}
