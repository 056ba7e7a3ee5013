// Package pipeline runs the agent chain for one repository event.
//
// Agents implement Stage and are executed strictly in order; the first
// failing stage aborts the run. Results flow forward through a shared
// State that each stage populates for its successors.
package pipeline
