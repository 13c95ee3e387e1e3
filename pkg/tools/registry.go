// Package tools holds the registry of assistant-invocable tools and their
// built-in implementations.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/vango-go/voicegate/pkg/core"
)

// Param describes one argument in a tool's schema.
type Param struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Definition is the engine-facing description of a tool.
type Definition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  map[string]Param `json:"parameters"`
	Required    []string         `json:"required"`
}

// ResultStatus is the outcome discriminator for tool invocations.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// Result is a tool invocation outcome. Error results flow back to the engine
// as data rather than aborting the turn.
type Result struct {
	Status       ResultStatus      `json:"status"`
	Payload      map[string]string `json:"payload,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// ErrorResult builds an error Result with the given message.
func ErrorResult(message string) Result {
	return Result{Status: StatusError, ErrorMessage: message}
}

// Executor is one invocable tool.
type Executor interface {
	Name() string
	Definition() Definition
	Execute(ctx context.Context, args map[string]string) Result
}

// Registry maps tool names to executors. Read-only after construction and
// safe for concurrent use.
type Registry struct {
	byName map[string]Executor
}

// NewRegistry builds a registry over the given executors. Nil executors are
// skipped; a later executor with a duplicate name wins.
func NewRegistry(executors ...Executor) *Registry {
	r := &Registry{byName: make(map[string]Executor, len(executors))}
	for _, ex := range executors {
		if ex == nil {
			continue
		}
		r.byName[ex.Name()] = ex
	}
	return r
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[name]
	return ok
}

// Catalog returns the definitions of every registered tool, sorted by name,
// for submission to the reasoning engine.
func (r *Registry) Catalog() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, 0, len(r.byName))
	for _, name := range r.Names() {
		out = append(out, r.byName[name].Definition())
	}
	return out
}

// Invoke runs the named tool. An unregistered name fails with unknown_tool;
// an executor panic is captured into an error Result so a misbehaving tool
// cannot take down the session.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]string) (result Result, err error) {
	if r == nil || !r.Has(name) {
		return Result{}, core.NewUnknownToolError(name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = ErrorResult(fmt.Sprintf("tool %s panicked: %v", name, rec))
			err = nil
		}
	}()

	return r.byName[name].Execute(ctx, args), nil
}
