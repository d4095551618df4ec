// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run

import (
	"context"

	"github.com/rvandermeulen/application-services/internal/log"
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
)

// configureTaskDescForRun is the default descriptor-configuration routine. It
// stamps the worker implementation and the job attributes and description
// onto the descriptor. Hosts that need worker-specific payload handling
// replace it with WithConfigurer.
func configureTaskDescForRun(
	ctx context.Context,
	job *Job,
	desc *taskdesc.TaskDescriptor,
	implementation string,
) error {
	log.Trace(ctx, "finalizing descriptor", "job", job.Name, "implementation", implementation)

	if desc.Worker == nil {
		desc.Worker = make(map[string]any)
	}

	desc.Worker["implementation"] = implementation

	if desc.Description == "" {
		desc.Description = job.Description
	}

	for k, v := range job.Attributes {
		if _, ok := desc.Attributes[k]; !ok {
			desc.Attributes[k] = v
		}
	}

	return nil
}
