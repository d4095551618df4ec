// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
)

// stepSeparator joins the assembled steps. The "&&" chaining makes the steps
// run sequentially and stops the chain on the first failing step; downstream
// consumers rely on exactly this separator.
const stepSeparator = " && "

// refKinds records which reference kinds appear anywhere in a command
// sequence.
type refKinds struct {
	artifact bool
	task     bool
}

// Assemble merges the given command steps into a single shell-safe command
// and classifies it. Every argument token is quoted so that a POSIX shell
// tokenizes the result back into the original tokens, the tokens of a step
// are joined with single spaces, and the steps are joined with " && ".
//
// A reference argument anywhere in the sequence classifies the whole joined
// command as a reference of that kind, even though only a single token
// carries the reference. The scheduler treats the command as one opaque
// templated string, so the classification cannot be scoped any tighter.
// Referencing both an artifact and a task in the same sequence is an error.
func Assemble(steps []CommandStep) (taskdesc.Command, error) {
	text, seen, err := flatten(steps)
	if err != nil {
		return taskdesc.Command{}, err
	}

	return classify(text, seen)
}

// flatten quotes and joins the steps into the final command text and records
// the reference kinds seen along the way.
func flatten(steps []CommandStep) (string, refKinds, error) {
	var seen refKinds

	quoted := make([]string, 0, len(steps))

	for _, step := range steps {
		tokens := make([]string, 0, len(step))

		for _, arg := range step {
			switch arg.Kind {
			case LiteralArgument:
			case ArtifactRefArgument:
				seen.artifact = true
			case TaskRefArgument:
				seen.task = true
			default:
				return "", seen, fmt.Errorf("%w: unknown argument kind %d", ErrUnsupportedArgument, int(arg.Kind))
			}

			tokens = append(tokens, shellquote.Join(arg.Text))
		}

		quoted = append(quoted, strings.Join(tokens, " "))
	}

	return strings.Join(quoted, stepSeparator), seen, nil
}

// classify tags the command text according to the reference kinds seen in the
// sequence.
func classify(text string, seen refKinds) (taskdesc.Command, error) {
	switch {
	case seen.artifact && seen.task:
		return taskdesc.Command{}, ErrConflictingReferences
	case seen.artifact:
		return taskdesc.ArtifactReference(text), nil
	case seen.task:
		return taskdesc.TaskReference(text), nil
	default:
		return taskdesc.Plain(text), nil
	}
}
