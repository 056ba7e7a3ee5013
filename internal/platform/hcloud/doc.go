// Package hcloud wraps the Hetzner Cloud API behind narrow interfaces.
//
// The cluster package consumes these interfaces; only the composition root
// constructs the real client. Tests substitute in-memory fakes.
package hcloud
