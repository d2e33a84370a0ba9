// Package timeouts defines the timeout constants shared by pennywise surfaces.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// LLMRequest caps one round trip to the generative language API.
const LLMRequest = 30 * time.Second

// WebSocketIdle closes chat sockets that stay silent this long.
const WebSocketIdle = 10 * time.Minute
