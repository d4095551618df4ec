// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
)

// ArgumentKind enumerates the recognized shapes of a command argument.
type ArgumentKind int

// The recognized argument kinds. The set is closed: the assembler matches on
// it exhaustively, and anything else coming from a job definition is rejected
// while the run section is decoded.
const (
	// LiteralArgument is a plain string token used verbatim.
	LiteralArgument ArgumentKind = iota

	// ArtifactRefArgument is a placeholder the scheduler replaces with
	// another task's artifact location.
	ArtifactRefArgument

	// TaskRefArgument is a placeholder the scheduler replaces with another
	// task's ID.
	TaskRefArgument
)

// An Argument is one token of a command step: either a literal string or a
// deferred reference to another task.
type Argument struct {
	Kind ArgumentKind
	Text string
}

// Literal returns a plain string argument.
func Literal(text string) Argument {
	return Argument{Kind: LiteralArgument, Text: text}
}

// ArtifactRef returns an argument referencing another task's artifact.
func ArtifactRef(text string) Argument {
	return Argument{Kind: ArtifactRefArgument, Text: text}
}

// TaskRef returns an argument referencing another task's ID.
func TaskRef(text string) Argument {
	return Argument{Kind: TaskRefArgument, Text: text}
}

// A CommandStep is one shell invocation, given argument by argument.
type CommandStep []Argument

// Step builds a command step from literal tokens.
func Step(args ...string) CommandStep {
	step := make(CommandStep, 0, len(args))
	for _, arg := range args {
		step = append(step, Literal(arg))
	}

	return step
}

// decodeArgument converts a raw value from a job definition into an Argument.
// The recognized shapes are a plain string and a single-key mapping keyed by
// "artifact-reference" or "task-reference".
func decodeArgument(value any) (Argument, error) {
	switch v := value.(type) {
	case string:
		return Literal(v), nil
	case Argument:
		return v, nil
	case map[string]any:
		if len(v) == 1 {
			if text, ok := v[taskdesc.ArtifactReferenceKey].(string); ok {
				return ArtifactRef(text), nil
			}

			if text, ok := v[taskdesc.TaskReferenceKey].(string); ok {
				return TaskRef(text), nil
			}
		}

		return Argument{}, fmt.Errorf("%w: %v", ErrUnsupportedArgument, v)
	default:
		return Argument{}, fmt.Errorf("%w: %[2]v (%[2]T)", ErrUnsupportedArgument, value)
	}
}

// argumentHook returns a mapstructure decode hook that converts raw job
// values into Arguments so that command steps can be decoded directly into
// []CommandStep.
func argumentHook() mapstructure.DecodeHookFuncType {
	argumentType := reflect.TypeOf(Argument{})

	return func(_, to reflect.Type, data any) (any, error) {
		if to != argumentType {
			return data, nil
		}

		arg, err := decodeArgument(data)
		if err != nil {
			return nil, err
		}

		return arg, nil
	}
}
