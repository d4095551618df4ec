// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package kind loads kind documents, the YAML files that hold the abstract
// job definitions of one task kind, and runs the job transforms over them.
package kind

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rvandermeulen/application-services/internal/log"
	"github.com/rvandermeulen/application-services/internal/run"
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// kindFileName is the name of the kind document within a kind directory.
const kindFileName = "kind.yml"

// Errors returned when loading kinds.
var (
	ErrInvalidKind = errors.New("invalid kind document")
)

// A Kind is one loaded kind document: a named group of jobs that produce
// tasks of the same shape.
type Kind struct {
	// Name is the name of the kind, taken from its directory name.
	Name string

	// Jobs are the job definitions of the kind in document order.
	Jobs []run.Job
}

// document is the raw shape of a kind.yml file.
type document struct {
	Tasks map[string]map[string]any `yaml:"tasks"`
}

// Load reads the kind document of the named kind from dir. Job names within
// the document become job names; the jobs are returned sorted by name to keep
// the output deterministic.
func Load(dir, name string) (*Kind, error) {
	path := filepath.Join(dir, name, kindFileName)

	data, err := os.ReadFile(path) //nolint:gosec // the kind directory is user input
	if err != nil {
		return nil, fmt.Errorf("failed to read kind document: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidKind, path, err)
	}

	if len(doc.Tasks) == 0 {
		return nil, fmt.Errorf("%w: %s: no tasks", ErrInvalidKind, path)
	}

	names := make([]string, 0, len(doc.Tasks))
	for jobName := range doc.Tasks {
		names = append(names, jobName)
	}

	sort.Strings(names)

	jobs := make([]run.Job, 0, len(names))

	for _, jobName := range names {
		job, err := decodeJob(jobName, doc.Tasks[jobName])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: job %q: %w", ErrInvalidKind, path, jobName, err)
		}

		jobs = append(jobs, job)
	}

	return &Kind{Name: name, Jobs: jobs}, nil
}

// LoadAll loads every kind found under dir. A kind is any direct subdirectory
// containing a kind document.
func LoadAll(dir string) ([]*Kind, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read kind directory: %w", err)
	}

	var kinds []*Kind

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if _, err := os.Stat(filepath.Join(dir, entry.Name(), kindFileName)); err != nil {
			continue
		}

		k, err := Load(dir, entry.Name())
		if err != nil {
			return nil, err
		}

		kinds = append(kinds, k)
	}

	return kinds, nil
}

// decodeJob converts one raw task entry of a kind document into a job.
func decodeJob(name string, raw map[string]any) (run.Job, error) {
	var job run.Job

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{ //nolint:exhaustruct // use default values
		Result: &job,
	})
	if err != nil {
		return job, fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return job, fmt.Errorf("failed to decode job: %w", err)
	}

	job.Name = name

	return job, nil
}

// Transform runs the registered job transforms over every job of the kind and
// returns the resulting task descriptors in job order. The jobs share no
// state, so they are transformed concurrently; the first failing job aborts
// the whole kind.
func Transform(ctx context.Context, registry *run.Registry, k *Kind) ([]*taskdesc.TaskDescriptor, error) {
	descs := make([]*taskdesc.TaskDescriptor, len(k.Jobs))

	g, ctx := errgroup.WithContext(ctx)

	for i, job := range k.Jobs {
		g.Go(func() error {
			desc := taskdesc.New(k.Name + "-" + job.Name)

			if err := registry.Transform(ctx, &job, desc); err != nil {
				return fmt.Errorf("kind %q: %w", k.Name, err)
			}

			descs[i] = desc

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug(ctx, "transformed kind", "kind", k.Name, "tasks", len(descs))

	return descs, nil
}
