// Package config loads and validates the pipewright service configuration.
//
// Configuration comes from two sources: a YAML file for structure (which
// stages run, sizing, endpoints) and environment variables for secrets and
// timeout tuning. The file never contains credentials; it names the
// environment variables that hold them.
package config
