// Package config - defaults.go centralizes default values.
package config

// Tracking modes.
const (
	ModeStrict     = "strict"
	ModeBestEffort = "best_effort"
)

// DefaultDashboardAddr is where the cost dashboard listens.
const DefaultDashboardAddr = "127.0.0.1:8350"
