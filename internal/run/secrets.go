// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run

import (
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
	"github.com/samber/lo"
)

// Helper scripts that materialize secrets inside the task. The generated
// commands only reference them; the scripts run later on the worker.
const (
	secretFetchScript  = "taskcluster/scripts/get-secret.py"
	dummySecretScript  = "taskcluster/scripts/write-dummy-secret.py"
	secretScopePrefix  = "secrets:get:"
	secretFetchCommand = "python3"
)

// A SecretDeclaration requests that a secret is fetched from the secret store
// into a local file before the main command runs.
type SecretDeclaration struct {
	// Name is the name of the secret in the secret store.
	Name string `mapstructure:"name"`

	// Path is the local file the secret is written to.
	Path string `mapstructure:"path"`

	// Key is the key to extract from the stored secret.
	Key string `mapstructure:"key"`

	// JSON makes the helper script decode the secret value as JSON before
	// writing it.
	JSON bool `mapstructure:"json"`
}

// A DummySecretDeclaration writes a literal value to a local file in place of
// a real secret. It is used on trust levels that have no access to the secret
// store.
type DummySecretDeclaration struct {
	// Content is the literal value to write.
	Content string `mapstructure:"content"`

	// Path is the local file the value is written to.
	Path string `mapstructure:"path"`

	// JSON makes the helper script decode the value as JSON before writing
	// it.
	JSON bool `mapstructure:"json"`
}

// secretFetchStep returns the command step that fetches the declared secret
// from the secret store.
func secretFetchStep(secret SecretDeclaration) CommandStep {
	step := Step(
		secretFetchCommand,
		secretFetchScript,
		"-s", secret.Name,
		"-k", secret.Key,
		"-f", secret.Path,
	)
	if secret.JSON {
		step = append(step, Literal("--json"))
	}

	return step
}

// dummySecretStep returns the command step that writes the declared dummy
// secret.
func dummySecretStep(secret DummySecretDeclaration) CommandStep {
	step := Step(
		dummySecretScript,
		"-f", secret.Path,
		"-c", secret.Content,
	)
	if secret.JSON {
		step = append(step, Literal("--json"))
	}

	return step
}

// injectSecretScopes appends the scopes required to read the declared secrets
// to the descriptor. The appended scopes are deduplicated; scopes already on
// the descriptor are preserved.
func injectSecretScopes(secrets []SecretDeclaration, desc *taskdesc.TaskDescriptor) {
	scopes := lo.Map(secrets, func(secret SecretDeclaration, _ int) string {
		return secretScopePrefix + secret.Name
	})

	desc.Scopes.Add(lo.Uniq(scopes)...)
}
