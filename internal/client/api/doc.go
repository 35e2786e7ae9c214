// Package api implements the HTTP client for the authentication server.
// It wraps the JSON endpoints in typed methods and translates transport
// and HTTP-level failures into sentinel errors the CLI can match on.
package api
