// Package daemon ties the engine manager, event starter, and status
// service together behind a lock-file guarded lifecycle and serves the
// HTTP API the CLI talks to.
package daemon
