// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package target implements the target-task methods, the named filters that
// select the tasks to actually schedule out of the full task graph. The
// method to apply is named by the decision parameters; every method is a pure
// filter over task labels and attributes, except for the nightly method that
// consults the Taskcluster index.
package target

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rvandermeulen/application-services/internal/log"
	"github.com/rvandermeulen/application-services/internal/params"
	"github.com/samber/lo"
)

// ErrUnknownMethod is returned when no target-task method is registered under
// the requested name.
var ErrUnknownMethod = errors.New("unknown target-tasks method")

// An IndexLookup resolves index routes to task IDs. It is satisfied by
// *index.Client.
type IndexLookup interface {
	FindTask(ctx context.Context, route string) (string, error)
}

// A Task is the part of a task the target-task methods see: its label and its
// attributes.
type Task struct {
	Label      string
	Attributes map[string]any
}

// A Graph is the full task graph keyed by task label.
type Graph map[string]Task

// Input is everything a target-task method may consult.
type Input struct {
	// Graph is the full task graph the method selects from.
	Graph Graph

	// Params are the decision parameters of the run.
	Params *params.Parameters

	// Index is the index client used by methods that check for previously
	// indexed tasks. Methods that do not use the index ignore it.
	Index IndexLookup
}

// A Method selects the labels of the target tasks from the full graph. The
// order of the returned labels is unspecified; callers that need an order
// apply their own.
type Method func(ctx context.Context, in Input) []string

// methods is the registry of the built-in target-task methods.
//
//nolint:gochecknoglobals // static method table
var methods = map[string]Method{
	"pr-skip":   prSkip,
	"full":      full,
	"nightly":   nightly,
	"pr-full":   prFull,
	"pr-normal": prNormal,
	"promote":   promote,
	"ship":      ship,
}

// Get returns the target-task method registered under the given name.
func Get(name string) (Method, error) {
	method, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}

	return method, nil
}

// Names returns the names of the registered methods, sorted.
func Names() []string {
	names := lo.Keys(methods)
	sort.Strings(names)

	return names
}

// prSkip selects nothing. It is used for pull requests that opt out of CI.
func prSkip(_ context.Context, _ Input) []string {
	return nil
}

// full selects every task. It is used for pushes to release branches and for
// pull requests that request a full preview build.
func full(_ context.Context, in Input) []string {
	return lo.Keys(in.Graph)
}

// nightly selects the tasks of a nightly build. When a nightly decision task
// is already indexed for the head revision, the nightly has already been
// tried for this commit and nothing is selected. Otherwise the promote and
// ship phases are filtered out unless a task is part of the nightly itself.
func nightly(ctx context.Context, in Input) []string {
	route := fmt.Sprintf(
		"project.%s.v2.branch.main.revision.%s.taskgraph.decision-nightly",
		in.Params.Project, in.Params.HeadRev,
	)

	// A lookup failure means no decision task has been indexed for the
	// revision, which is the expected case.
	if taskID, err := in.Index.FindTask(ctx, route); err == nil && taskID != "" {
		log.Info(ctx, "nightly already ran, skipping", "rev", in.Params.HeadRev, "task", taskID)

		return nil
	}

	return selectLabels(in.Graph, outsideShippingPhase)
}

// prFull selects the tasks that run on full-CI pull requests.
func prFull(_ context.Context, in Input) []string {
	return selectLabels(in.Graph, func(task Task) bool {
		return runsOnTasksFor(task, in.Params.TasksFor) &&
			matchesPRType(task, "full-ci") &&
			attrString(task, "release-type") != "release-only"
	})
}

// prNormal selects the tasks that run on ordinary pull requests.
func prNormal(_ context.Context, in Input) []string {
	return selectLabels(in.Graph, func(task Task) bool {
		return runsOnTasksFor(task, in.Params.TasksFor) &&
			matchesPRType(task, "normal-ci") &&
			attrString(task, "release-type") != "release-only"
	})
}

// promote selects the promote phase of a release.
func promote(_ context.Context, in Input) []string {
	return shippingPhase(in.Graph, nil, "promote")
}

// ship selects the ship phase of a release on top of the promote candidates,
// which the scheduler optimizes out when they already ran.
func ship(ctx context.Context, in Input) []string {
	return shippingPhase(in.Graph, promote(ctx, in), "ship")
}

// shippingPhase selects the tasks of the given shipping phase plus the given
// candidate labels.
func shippingPhase(graph Graph, candidates []string, phase string) []string {
	wanted := make(map[string]bool, len(candidates))
	for _, label := range candidates {
		wanted[label] = true
	}

	return selectLabels(graph, func(task Task) bool {
		return wanted[task.Label] || attrString(task, "shipping_phase") == phase
	})
}

// selectLabels returns the labels of the tasks matching the filter.
func selectLabels(graph Graph, keep func(Task) bool) []string {
	var labels []string

	for label, task := range graph {
		if keep(task) {
			labels = append(labels, label)
		}
	}

	return labels
}

// outsideShippingPhase reports whether the task is not a release task: it
// either carries the nightly attribute or has no shipping phase beyond the
// build.
func outsideShippingPhase(task Task) bool {
	if nightly, _ := task.Attributes["nightly"].(bool); nightly {
		return true
	}

	phase := attrString(task, "shipping_phase")

	return phase == "" || phase == "build"
}

// runsOnTasksFor reports whether the task has opted in to the event the graph
// is generated for. Tasks without the run_on_tasks_for attribute run on every
// event.
func runsOnTasksFor(task Task, tasksFor string) bool {
	raw, ok := task.Attributes["run_on_tasks_for"]
	if !ok {
		return true
	}

	events, ok := raw.([]any)
	if !ok {
		return false
	}

	return lo.ContainsBy(events, func(event any) bool {
		return event == "all" || event == tasksFor
	})
}

// matchesPRType reports whether the task runs on the given pull-request CI
// type. Tasks without the run-on-pr-type attribute run on every type.
func matchesPRType(task Task, prType string) bool {
	t, ok := task.Attributes["run-on-pr-type"].(string)
	if !ok {
		return true
	}

	return t == prType || t == "all"
}

// attrString returns the string value of a task attribute, or "" when the
// attribute is absent or not a string.
func attrString(task Task, key string) string {
	s, _ := task.Attributes[key].(string)

	return s
}
