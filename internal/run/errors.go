// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run

import "errors"

// Errors returned by the run transforms. All of them are unrecoverable for
// the job in question: the caller must halt the graph generation for the job
// and report the failure, no partial descriptor is usable.
var (
	// ErrConflictingReferences is returned when a command sequence references
	// both an artifact and a task identity. The scheduler can substitute only
	// one reference kind per command.
	ErrConflictingReferences = errors.New("artifact-reference and task-reference cannot be used in the same command")

	// ErrUnsupportedArgument is returned when a command argument is neither a
	// literal string nor one of the recognized reference shapes.
	ErrUnsupportedArgument = errors.New("unsupported command argument")

	// ErrInvalidRun is returned when the run section of a job does not match
	// the schema of its flavor.
	ErrInvalidRun = errors.New("invalid run configuration")

	// ErrUnknownFlavor is returned when no handler is registered for the
	// combination of worker implementation and run flavor of a job.
	ErrUnknownFlavor = errors.New("no run handler registered")
)
