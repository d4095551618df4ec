// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package params defines the decision parameters of a task-graph generation
// run. The parameters describe the event the graph is generated for: the
// revision, the kind of push or pull request, the trust level, and the
// release version when one is being cut.
package params

import (
	"errors"
	"fmt"
	"os"

	"github.com/anttikivi/semver"
	"gopkg.in/yaml.v3"
)

// Trust levels of a repository. Level 3 repositories have access to the
// secret store and publish to the production indexes.
const (
	minLevel = 1
	maxLevel = 3
)

// Errors returned when validating parameters.
var (
	ErrInvalidParameters = errors.New("invalid parameters")
)

// Parameters are the decision parameters of one generation run.
type Parameters struct {
	// TasksFor names the event the graph is generated for, for example
	// "github-pull-request" or "github-push".
	TasksFor string `yaml:"tasks_for"`

	// HeadRev is the revision of the push the graph is generated for.
	HeadRev string `yaml:"head_rev"`

	// Project is the project name of the repository.
	Project string `yaml:"project"`

	// Level is the trust level of the repository, 1 through 3.
	Level int `yaml:"level"`

	// Version is the release version being built, if any. When set, it must
	// be a valid semantic version.
	Version string `yaml:"version"`

	// TargetTasksMethod names the target-task filter to apply to the full
	// graph.
	TargetTasksMethod string `yaml:"target_tasks_method"`
}

// Default returns the parameters used when no parameters file is given.
func Default() *Parameters {
	return &Parameters{
		TasksFor:          "github-push",
		HeadRev:           "",
		Project:           "application-services",
		Level:             minLevel,
		Version:           "",
		TargetTasksMethod: "full",
	}
}

// Load reads and validates a parameters file.
func Load(path string) (*Parameters, error) {
	data, err := os.ReadFile(path) //nolint:gosec // the parameters file path is user input
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode parameters file: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks the parameter values for consistency.
func (p *Parameters) Validate() error {
	if p.TasksFor == "" {
		return fmt.Errorf("%w: tasks_for must be set", ErrInvalidParameters)
	}

	if p.Level < minLevel || p.Level > maxLevel {
		return fmt.Errorf("%w: level %d is not between %d and %d", ErrInvalidParameters, p.Level, minLevel, maxLevel)
	}

	if p.Version != "" {
		if _, err := semver.Parse(p.Version); err != nil {
			return fmt.Errorf("%w: version %q: %w", ErrInvalidParameters, p.Version, err)
		}
	}

	return nil
}
