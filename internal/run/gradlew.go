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

// gradlewRun is the decoded run section of a gradlew job.
type gradlewRun struct {
	Using        string                   `mapstructure:"using"`
	PreGradlew   []CommandStep            `mapstructure:"pre-gradlew"`
	Gradlew      []string                 `mapstructure:"gradlew"`
	PostGradlew  []CommandStep            `mapstructure:"post-gradlew"`
	Workdir      string                   `mapstructure:"workdir"`
	UseCaches    bool                     `mapstructure:"use-caches"`
	Secrets      []SecretDeclaration      `mapstructure:"secrets"`
	DummySecrets []DummySecretDeclaration `mapstructure:"dummy-secrets"`
}

// configureGradlew handles gradlew jobs on docker-worker. The worker
// configuration of the job is copied onto the descriptor as-is, and the
// gradlew invocation is wrapped between the secret steps and the optional
// post steps.
func (r *Registry) configureGradlew(
	ctx context.Context,
	job *Job,
	desc *taskdesc.TaskDescriptor,
) error {
	section, err := decodeRun[gradlewRun](job.Run)
	if err != nil {
		return err
	}

	desc.Worker = job.Worker.Map()

	steps := slices.Clone(section.PreGradlew)

	for _, secret := range section.DummySecrets {
		steps = append(steps, dummySecretStep(secret))
	}

	for _, secret := range section.Secrets {
		steps = append(steps, secretFetchStep(secret))
	}

	steps = append(steps, Step(append([]string{"./gradlew"}, section.Gradlew...)...))
	steps = append(steps, section.PostGradlew...)

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
