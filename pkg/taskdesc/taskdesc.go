// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package taskdesc defines the task descriptor, the finalized configuration
// object that describes one unit of work for the Taskcluster queue. The run
// transforms fill in the descriptor fields; the descriptor itself holds no
// logic beyond maintaining its invariants when it is written to.
package taskdesc

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Reference keys recognized in command values. A command carrying one of
// these keys is substituted by the scheduler at dispatch time with another
// task's artifact location or task ID.
const (
	ArtifactReferenceKey = "artifact-reference"
	TaskReferenceKey     = "task-reference"
)

// A TaskDescriptor is the output of the job transforms: the concrete
// description of one task that is handed to the task-graph scheduler.
type TaskDescriptor struct {
	// Label is the unique label of the task within the graph.
	Label string `yaml:"label"`

	// Description is the human-readable description of the task.
	Description string `yaml:"description,omitempty"`

	// Attributes are free-form key-value pairs used by the target-task
	// filters and later transforms.
	Attributes map[string]any `yaml:"attributes,omitempty"`

	// Routes are the index and notification routes of the task.
	Routes []string `yaml:"routes,omitempty"`

	// Scopes are the authorization scopes granted to the task.
	Scopes Scopes `yaml:"scopes,omitempty"`

	// Worker is the worker payload configuration. Its exact shape depends on
	// the worker implementation.
	Worker map[string]any `yaml:"worker,omitempty"`

	// Run is the run configuration written by the run transforms.
	Run Run `yaml:"run,omitempty"`
}

// Run is the run configuration of a task descriptor.
type Run struct {
	// Using names the executor mode the worker uses to run the command.
	Using string `yaml:"using,omitempty"`

	// Command is the fully assembled shell command of the task.
	Command Command `yaml:"command,omitempty"`

	// Cwd is the working directory the command runs in. It may contain
	// placeholders that the executor substitutes, such as "{checkout}".
	Cwd string `yaml:"cwd,omitempty"`
}

// New returns a new task descriptor with the given label and empty, non-nil
// collections.
func New(label string) *TaskDescriptor {
	return &TaskDescriptor{
		Label:       label,
		Description: "",
		Attributes:  make(map[string]any),
		Routes:      nil,
		Scopes:      nil,
		Worker:      make(map[string]any),
		Run:         Run{}, //nolint:exhaustruct // zero value wanted
	}
}

// Scopes is an insertion-ordered set of authorization scope strings. The zero
// value is ready to use.
type Scopes []string

// Add appends the given scopes to the set, skipping the ones that are already
// present. Existing scopes keep their positions.
func (s *Scopes) Add(scopes ...string) {
	for _, scope := range scopes {
		if !slices.Contains(*s, scope) {
			*s = append(*s, scope)
		}
	}
}

// Contains reports whether the set contains the given scope.
func (s Scopes) Contains(scope string) bool {
	return slices.Contains(s, scope)
}

// CommandKind is the classification of an assembled command.
type CommandKind int

// The possible classifications of an assembled command.
const (
	// PlainCommand is a command that is passed to the worker as-is.
	PlainCommand CommandKind = iota

	// ArtifactReferenceCommand is a command the scheduler must wrap as an
	// artifact reference before dispatch.
	ArtifactReferenceCommand

	// TaskReferenceCommand is a command the scheduler must wrap as a task
	// reference before dispatch.
	TaskReferenceCommand
)

// A Command is an assembled shell command together with its classification.
// Depending on the kind, it serializes either as a plain string or as a
// single-key mapping tagging the string as a reference.
type Command struct {
	Kind CommandKind
	Text string
}

// Plain returns a command that needs no substitution.
func Plain(text string) Command {
	return Command{Kind: PlainCommand, Text: text}
}

// ArtifactReference returns a command that must be wrapped as an artifact
// reference.
func ArtifactReference(text string) Command {
	return Command{Kind: ArtifactReferenceCommand, Text: text}
}

// TaskReference returns a command that must be wrapped as a task reference.
func TaskReference(text string) Command {
	return Command{Kind: TaskReferenceCommand, Text: text}
}

// IsZero reports whether the command is the zero value. It is used by the
// YAML encoder to omit empty commands.
func (c Command) IsZero() bool {
	return c.Kind == PlainCommand && c.Text == ""
}

// String returns the command for logging. Reference commands are prefixed
// with their reference key.
func (c Command) String() string {
	switch c.Kind {
	case PlainCommand:
		return c.Text
	case ArtifactReferenceCommand:
		return ArtifactReferenceKey + ":" + c.Text
	case TaskReferenceCommand:
		return TaskReferenceKey + ":" + c.Text
	default:
		return fmt.Sprintf("<invalid command kind %d>", int(c.Kind))
	}
}

// MarshalYAML implements yaml.Marshaler for Command. Plain commands become
// scalars, reference commands become single-key mappings keyed by their
// reference key.
func (c Command) MarshalYAML() (any, error) {
	switch c.Kind {
	case PlainCommand:
		return c.Text, nil
	case ArtifactReferenceCommand:
		return map[string]string{ArtifactReferenceKey: c.Text}, nil
	case TaskReferenceCommand:
		return map[string]string{TaskReferenceKey: c.Text}, nil
	default:
		return nil, fmt.Errorf("cannot marshal command: invalid kind %d", int(c.Kind))
	}
}

// MarshalJSON implements json.Marshaler for Command using the same shape as
// the YAML encoding.
func (c Command) MarshalJSON() ([]byte, error) {
	v, err := c.MarshalYAML()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal command: %w", err)
	}

	return data, nil
}
