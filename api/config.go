// Package api provides the bridge's HTTP status server: liveness, connection
// status and prometheus metrics.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string
}
