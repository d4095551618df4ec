// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package run translates abstract job definitions into concrete task
// descriptors. A job names a run flavor (run-commands or gradlew) and a
// worker implementation; the matching handler normalizes the job's command
// steps, secret declarations, and scopes into a single shell command and a
// set of authorization scopes on the descriptor.
//
// The transforms are pure configuration-to-configuration steps: nothing here
// executes commands, touches the network, or schedules tasks. Multiple jobs
// may be transformed concurrently as the transforms share no state.
package run

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rvandermeulen/application-services/internal/log"
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
)

// Run flavor tags. The flavor of a job is the value of the "using" key in its
// run section.
const (
	usingRunCommands = "run-commands"
	usingGradlew     = "gradlew"
)

// Worker implementation names the handlers are registered for.
const (
	dockerWorker  = "docker-worker"
	genericWorker = "generic-worker"
)

// Fixed run attributes stamped by every handler. The worker checks out the
// sources and substitutes the checkout placeholder before running the
// command.
const (
	checkoutCwd  = "{checkout}"
	runTaskUsing = "run-task"
)

// A Job is the abstract description of one unit of work as submitted by a
// pipeline author. Jobs are values: handlers never modify them and produce
// their output solely on the task descriptor.
type Job struct {
	// Name is the name of the job within its kind.
	Name string `mapstructure:"name"`

	// Description is the human-readable description of the job.
	Description string `mapstructure:"description"`

	// Worker selects and configures the worker the job runs on.
	Worker Worker `mapstructure:"worker"`

	// Run is the raw, flavor-specific run section. It is validated against
	// the flavor schema and decoded by the handler.
	Run map[string]any `mapstructure:"run"`

	// Attributes are free-form key-value pairs carried onto the descriptor.
	Attributes map[string]any `mapstructure:"attributes"`
}

// Using returns the run flavor tag of the job.
func (j *Job) Using() string {
	using, _ := j.Run["using"].(string)

	return using
}

// A Worker is the worker configuration of a job.
type Worker struct {
	// Implementation is the name of the worker implementation.
	Implementation string `mapstructure:"implementation"`

	// Config contains the rest of the worker configuration.
	Config map[string]any `mapstructure:",remain"` //nolint:tagliatelle // linter doesn't know about "remain"
}

// Map returns the worker configuration as a single map, the shape the
// descriptor carries it in.
func (w Worker) Map() map[string]any {
	m := make(map[string]any, len(w.Config)+1)
	for k, v := range w.Config {
		m[k] = v
	}

	m["implementation"] = w.Implementation

	return m
}

// A DescriptorConfigurer finalizes the remaining descriptor fields for the
// given worker implementation after a handler has written the run
// configuration. The host graph generator may replace the default.
type DescriptorConfigurer func(
	ctx context.Context,
	job *Job,
	desc *taskdesc.TaskDescriptor,
	implementation string,
) error

// A handlerFunc transforms one job into fields on the task descriptor.
type handlerFunc func(ctx context.Context, job *Job, desc *taskdesc.TaskDescriptor) error

// handlerKey identifies a registered handler.
type handlerKey struct {
	implementation string
	using          string
}

// handler is one registered flavor handler together with the schema its run
// sections must match.
type handler struct {
	schema map[string]any
	fn     handlerFunc
}

// A Registry maps worker implementation and run flavor pairs to their
// handlers. Use NewRegistry to create one with the built-in handlers
// registered.
type Registry struct {
	handlers  map[handlerKey]handler
	configure DescriptorConfigurer
}

// A RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithConfigurer replaces the descriptor-configuration routine the handlers
// hand off to.
func WithConfigurer(configure DescriptorConfigurer) RegistryOption {
	return func(r *Registry) {
		r.configure = configure
	}
}

// NewRegistry returns a registry with the built-in handlers registered:
// run-commands on docker-worker and generic-worker, and gradlew on
// docker-worker.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		handlers:  make(map[handlerKey]handler),
		configure: configureTaskDescForRun,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.register(dockerWorker, usingRunCommands, runCommandsSchema, r.configureRunCommands)
	r.register(genericWorker, usingRunCommands, runCommandsSchema, r.configureRunCommands)
	r.register(dockerWorker, usingGradlew, gradlewSchema, r.configureGradlew)

	return r
}

// register adds a handler for the given worker implementation and flavor.
func (r *Registry) register(implementation, using string, schema map[string]any, fn handlerFunc) {
	key := handlerKey{implementation: implementation, using: using}
	if _, ok := r.handlers[key]; ok {
		panic(fmt.Sprintf("duplicate run handler for %s/%s", implementation, using))
	}

	r.handlers[key] = handler{schema: schema, fn: fn}
}

// Transform runs the handler matching the job's worker implementation and run
// flavor, filling in the given task descriptor. The job's run section is
// validated against the flavor schema first. Transform returns an error when
// no handler matches or when the handler fails; the descriptor must not be
// used after an error.
func (r *Registry) Transform(ctx context.Context, job *Job, desc *taskdesc.TaskDescriptor) error {
	key := handlerKey{implementation: job.Worker.Implementation, using: job.Using()}

	h, ok := r.handlers[key]
	if !ok {
		return fmt.Errorf("%w: worker %q, using %q", ErrUnknownFlavor, key.implementation, key.using)
	}

	log.Debug(ctx, "transforming job", "job", job.Name, "worker", key.implementation, "using", key.using)

	if err := validateRun(h.schema, job.Run); err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}

	if err := h.fn(ctx, job, desc); err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}

	return nil
}

// decodeRun decodes the raw run section of a job into the flavor-specific
// struct, converting taskref-or-string values into Arguments on the way.
func decodeRun[T any](raw map[string]any) (T, error) {
	var out T

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{ //nolint:exhaustruct // use default values
		DecodeHook: argumentHook(),
		Result:     &out,
	})
	if err != nil {
		return out, fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return out, fmt.Errorf("failed to decode run section: %w", err)
	}

	return out, nil
}
