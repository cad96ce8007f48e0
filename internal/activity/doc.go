// Package activity dispatches stage activities by name and applies the
// per-invocation timeout and retry policy around them.
package activity
