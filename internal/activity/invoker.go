package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"vidflow/internal/services"
)

// Payload is the opaque JSON document passed into and out of a stage
// activity. The engine stores results verbatim, so payloads must marshal
// deterministically enough for replay to reproduce them.
type Payload = json.RawMessage

// Func is a single stage activity.
type Func func(ctx context.Context, input Payload) (Payload, error)

// Invoker dispatches a stage invocation by name.
type Invoker interface {
	Invoke(ctx context.Context, stage string, input Payload) (Payload, error)
}

// Error identifies the stage that produced a failure so the engine can
// record it against the right step.
type Error struct {
	Stage   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return e.Stage
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with stage attribution. A nil err returns nil.
func NewError(stage, message string, err error) error {
	if err == nil {
		return nil
	}
	if message == "" {
		message = err.Error()
	}
	return &Error{Stage: stage, Message: message, Err: err}
}

// Registry maps stage names to activity funcs.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register binds fn to the stage name, replacing any earlier binding.
func (r *Registry) Register(stage string, fn Func) {
	r.funcs[stage] = fn
}

// Stages returns the registered stage names in sorted order.
func (r *Registry) Stages() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the registered activity for stage. An unknown stage is a
// configuration error, not a transient one.
func (r *Registry) Invoke(ctx context.Context, stage string, input Payload) (Payload, error) {
	fn, ok := r.funcs[stage]
	if !ok {
		return nil, NewError(stage, "no activity registered",
			services.Wrap(services.ErrConfiguration, stage, "invoke", "no activity registered", nil))
	}
	out, err := fn(ctx, input)
	if err != nil {
		return nil, NewError(stage, "", err)
	}
	return out, nil
}
