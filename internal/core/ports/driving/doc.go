// Package driving provides interfaces for inbound use cases
// (primary ports), consumed by the API layer and the CLI.
package driving
