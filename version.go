package gemkit

import "runtime"

// Version is the library version reported in identification headers.
const Version = "0.4.0"

// IdentityToken is appended to the User-Agent and X-Goog-Api-Client headers.
func IdentityToken() string {
	return "gemkit-go/" + Version + " gl-go/" + runtime.Version()
}
