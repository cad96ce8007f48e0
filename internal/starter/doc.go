// Package starter parses blob-created trigger events, filters non-video
// uploads, and creates pending orchestration instances.
package starter
