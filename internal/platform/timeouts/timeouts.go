// Package timeouts defines shared timeout constants used across the arena.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// AgentConnect caps the wait time when dialing a participant agent.
const AgentConnect = 10 * time.Second

// AgentRequest caps the time a participant agent gets to produce an action
// when the game config does not set a phase-specific limit.
const AgentRequest = 60 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
