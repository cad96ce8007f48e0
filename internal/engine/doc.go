// Package engine executes orchestration instances stage by stage.
//
// The Engine consults the instance store before invoking any stage, so a
// re-run after a crash replays recorded results instead of calling the
// activity again. The Manager polls for pending and interrupted
// instances and runs them with bounded concurrency, keeping at most one
// executor per instance in flight.
package engine
