// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run

import (
	"context"
	"fmt"
	"slices"

	"github.com/rvandermeulen/application-services/pkg/taskdesc"
)

// runCommandsRun is the decoded run section of a run-commands job.
type runCommandsRun struct {
	Using          string                   `mapstructure:"using"`
	PreCommands    []CommandStep            `mapstructure:"pre-commands"`
	Commands       []CommandStep            `mapstructure:"commands"`
	Workdir        string                   `mapstructure:"workdir"`
	UseCaches      bool                     `mapstructure:"use-caches"`
	Secrets        []SecretDeclaration      `mapstructure:"secrets"`
	DummySecrets   []DummySecretDeclaration `mapstructure:"dummy-secrets"`
	RunTaskCommand []string                 `mapstructure:"run-task-command"`
}

// configureRunCommands handles run-commands jobs on both docker-worker and
// generic-worker. The step order is fixed: pre-commands, dummy-secret steps,
// real-secret steps, then the main commands.
func (r *Registry) configureRunCommands(
	ctx context.Context,
	job *Job,
	desc *taskdesc.TaskDescriptor,
) error {
	section, err := decodeRun[runCommandsRun](job.Run)
	if err != nil {
		return err
	}

	steps := slices.Clone(section.PreCommands)

	for _, secret := range section.DummySecrets {
		steps = append(steps, dummySecretStep(secret))
	}

	for _, secret := range section.Secrets {
		steps = append(steps, secretFetchStep(secret))
	}

	steps = append(steps, section.Commands...)

	command, err := Assemble(steps)
	if err != nil {
		return fmt.Errorf("failed to assemble command: %w", err)
	}

	desc.Run = taskdesc.Run{
		Using:   runTaskUsing,
		Command: command,
		Cwd:     checkoutCwd,
	}

	injectSecretScopes(section.Secrets, desc)

	return r.configure(ctx, job, desc, job.Worker.Implementation)
}
