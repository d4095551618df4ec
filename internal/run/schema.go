// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run

import (
	"fmt"
	"strings"

	"github.com/rvandermeulen/application-services/pkg/taskdesc"
	"github.com/xeipuuv/gojsonschema"
)

// Shared schema fragments for the run-section schemas.
var (
	stringType = map[string]any{"type": "string"}
	boolType   = map[string]any{"type": "boolean"}

	// commandType is a sequence of plain string tokens.
	commandType = map[string]any{
		"type":  "array",
		"items": stringType,
	}

	// taskRefOrString matches a literal token or a single-key reference
	// mapping.
	taskRefOrString = map[string]any{
		"oneOf": []any{
			stringType,
			map[string]any{
				"type":          "object",
				"minProperties": 1,
				"maxProperties": 1,
				"properties": map[string]any{
					taskdesc.ArtifactReferenceKey: stringType,
					taskdesc.TaskReferenceKey:     stringType,
				},
				"additionalProperties": false,
			},
		},
	}

	secretSchema = map[string]any{
		"type":     "object",
		"required": []any{"name", "path", "key"},
		"properties": map[string]any{
			"name": stringType,
			"path": stringType,
			"key":  stringType,
			"json": boolType,
		},
		"additionalProperties": false,
	}

	dummySecretSchema = map[string]any{
		"type":     "object",
		"required": []any{"content", "path"},
		"properties": map[string]any{
			"content": stringType,
			"path":    stringType,
			"json":    boolType,
		},
		"additionalProperties": false,
	}
)

// runCommandsSchema is the schema of the run section for the run-commands
// flavor.
var runCommandsSchema = map[string]any{
	"type":     "object",
	"required": []any{"using", "commands", "workdir"},
	"properties": map[string]any{
		"using": map[string]any{"const": usingRunCommands},
		"pre-commands": map[string]any{
			"type":  "array",
			"items": commandType,
		},
		"commands": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":  "array",
				"items": taskRefOrString,
			},
		},
		// Base work directory used to set up the task.
		"workdir":    stringType,
		"use-caches": boolType,
		"secrets": map[string]any{
			"type":  "array",
			"items": secretSchema,
		},
		"dummy-secrets": map[string]any{
			"type":  "array",
			"items": dummySecretSchema,
		},
		"run-task-command": commandType,
	},
	"additionalProperties": false,
}

// gradlewSchema is the schema of the run section for the gradlew flavor.
var gradlewSchema = map[string]any{
	"type":     "object",
	"required": []any{"using", "gradlew", "workdir"},
	"properties": map[string]any{
		"using": map[string]any{"const": usingGradlew},
		"pre-gradlew": map[string]any{
			"type":  "array",
			"items": commandType,
		},
		"gradlew": commandType,
		"post-gradlew": map[string]any{
			"type":  "array",
			"items": commandType,
		},
		// Base work directory used to set up the task.
		"workdir":    stringType,
		"use-caches": boolType,
		"secrets": map[string]any{
			"type":  "array",
			"items": secretSchema,
		},
		"dummy-secrets": map[string]any{
			"type":  "array",
			"items": dummySecretSchema,
		},
	},
	"additionalProperties": false,
}

// validateRun checks the raw run section of a job against the given schema.
// Shape mismatches are reported before the section is decoded so that the
// decoding can assume well-formed input.
func validateRun(schema, raw map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to validate run section: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidRun, strings.Join(msgs, "; "))
}
