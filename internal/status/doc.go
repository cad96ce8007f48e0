// Package status projects stored orchestration instances into the
// client-facing status views served by the daemon API.
package status
