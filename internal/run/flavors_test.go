// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package run_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rvandermeulen/application-services/internal/run"
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
)

// transform runs one job through a fresh registry and fails the test on
// error.
func transform(t *testing.T, job *run.Job) *taskdesc.TaskDescriptor {
	t.Helper()

	desc := taskdesc.New(job.Name)

	if err := run.NewRegistry().Transform(context.Background(), job, desc); err != nil {
		t.Fatalf("Transform() returned an error: %v", err)
	}

	return desc
}

func TestTransform_RunCommands(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "unit-test",
		Description: "run the unit tests",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using":        "run-commands",
			"pre-commands": []any{[]any{"echo", "hi"}},
			"commands":     []any{[]any{"ls", "-la"}},
			"workdir":      "/builds/worker/checkouts",
			"secrets": []any{
				map[string]any{"name": "s1", "path": "/tmp/s1", "key": "k1"},
			},
		},
		Attributes: nil,
	}

	desc := transform(t, job)

	want := "echo hi && python3 taskcluster/scripts/get-secret.py -s s1 -k k1 -f /tmp/s1 && ls -la"
	if desc.Run.Command.Text != want {
		t.Errorf("command = %q, want %q", desc.Run.Command.Text, want)
	}

	if desc.Run.Command.Kind != taskdesc.PlainCommand {
		t.Errorf("command kind = %v, want PlainCommand", desc.Run.Command.Kind)
	}

	if desc.Run.Using != "run-task" {
		t.Errorf("run.using = %q, want %q", desc.Run.Using, "run-task")
	}

	if desc.Run.Cwd != "{checkout}" {
		t.Errorf("run.cwd = %q, want %q", desc.Run.Cwd, "{checkout}")
	}

	if !desc.Scopes.Contains("secrets:get:s1") {
		t.Errorf("scopes = %v, missing %q", desc.Scopes, "secrets:get:s1")
	}

	if got := desc.Worker["implementation"]; got != "docker-worker" {
		t.Errorf("worker implementation = %v, want docker-worker", got)
	}
}

func TestTransform_RunCommandsGenericWorker(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "windows-test",
		Description: "",
		Worker:      run.Worker{Implementation: "generic-worker", Config: nil},
		Run: map[string]any{
			"using":    "run-commands",
			"commands": []any{[]any{"echo", "ok"}},
			"workdir":  "C:/work",
		},
		Attributes: nil,
	}

	desc := transform(t, job)

	if desc.Run.Command.Text != "echo ok" {
		t.Errorf("command = %q, want %q", desc.Run.Command.Text, "echo ok")
	}

	if got := desc.Worker["implementation"]; got != "generic-worker" {
		t.Errorf("worker implementation = %v, want generic-worker", got)
	}
}

func TestTransform_SecretStepOrder(t *testing.T) {
	t.Parallel()

	// The step order is fixed: pre-commands, dummy secrets, real secrets,
	// main commands.
	job := &run.Job{
		Name:        "ordering",
		Description: "",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using":        "run-commands",
			"pre-commands": []any{[]any{"echo", "pre"}},
			"commands":     []any{[]any{"echo", "main"}},
			"workdir":      "/builds",
			"secrets": []any{
				map[string]any{"name": "s1", "path": "/tmp/s1", "key": "k1", "json": true},
			},
			"dummy-secrets": []any{
				map[string]any{"content": "fake", "path": "/tmp/d1"},
			},
		},
		Attributes: nil,
	}

	desc := transform(t, job)

	want := "echo pre" +
		" && taskcluster/scripts/write-dummy-secret.py -f /tmp/d1 -c fake" +
		" && python3 taskcluster/scripts/get-secret.py -s s1 -k k1 -f /tmp/s1 --json" +
		" && echo main"
	if desc.Run.Command.Text != want {
		t.Errorf("command = %q, want %q", desc.Run.Command.Text, want)
	}
}

func TestTransform_ScopeDeduplication(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "dedup",
		Description: "",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using":    "run-commands",
			"commands": []any{[]any{"true"}},
			"workdir":  "/builds",
			"secrets": []any{
				map[string]any{"name": "a", "path": "/tmp/a", "key": "k"},
				map[string]any{"name": "a", "path": "/tmp/a2", "key": "k"},
				map[string]any{"name": "b", "path": "/tmp/b", "key": "k"},
			},
		},
		Attributes: nil,
	}

	desc := transform(t, job)

	want := taskdesc.Scopes{"secrets:get:a", "secrets:get:b"}
	if len(desc.Scopes) != len(want) {
		t.Fatalf("scopes = %v, want %v", desc.Scopes, want)
	}

	for i, scope := range want {
		if desc.Scopes[i] != scope {
			t.Errorf("scopes[%d] = %q, want %q", i, desc.Scopes[i], scope)
		}
	}
}

func TestTransform_PriorScopesPreserved(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "prior",
		Description: "",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using":    "run-commands",
			"commands": []any{[]any{"true"}},
			"workdir":  "/builds",
			"secrets": []any{
				map[string]any{"name": "a", "path": "/tmp/a", "key": "k"},
			},
		},
		Attributes: nil,
	}

	desc := taskdesc.New(job.Name)
	desc.Scopes.Add("docker-worker:cache:app-services-checkout")

	if err := run.NewRegistry().Transform(context.Background(), job, desc); err != nil {
		t.Fatalf("Transform() returned an error: %v", err)
	}

	if desc.Scopes[0] != "docker-worker:cache:app-services-checkout" {
		t.Errorf("prior scope was not preserved: %v", desc.Scopes)
	}

	if !desc.Scopes.Contains("secrets:get:a") {
		t.Errorf("scopes = %v, missing %q", desc.Scopes, "secrets:get:a")
	}
}

func TestTransform_Gradlew(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "assemble",
		Description: "assemble the android packages",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using":   "gradlew",
			"gradlew": []any{"assemble"},
			"workdir": "/builds/worker/checkouts",
		},
		Attributes: nil,
	}

	desc := transform(t, job)

	if desc.Run.Command.Text != "./gradlew assemble" {
		t.Errorf("command = %q, want %q", desc.Run.Command.Text, "./gradlew assemble")
	}

	if desc.Run.Command.Kind != taskdesc.PlainCommand {
		t.Errorf("command kind = %v, want PlainCommand", desc.Run.Command.Kind)
	}
}

func TestTransform_GradlewFullSequence(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "release",
		Description: "",
		Worker: run.Worker{
			Implementation: "docker-worker",
			Config:         map[string]any{"max-run-time": 1800},
		},
		Run: map[string]any{
			"using":        "gradlew",
			"pre-gradlew":  []any{[]any{"git", "submodule", "update", "--init"}},
			"gradlew":      []any{"publish", "--no-daemon"},
			"post-gradlew": []any{[]any{"python3", "upload.py"}},
			"workdir":      "/builds/worker/checkouts",
			"secrets": []any{
				map[string]any{"name": "publish-key", "path": "/tmp/key", "key": "token"},
			},
		},
		Attributes: nil,
	}

	desc := transform(t, job)

	want := "git submodule update --init" +
		" && python3 taskcluster/scripts/get-secret.py -s publish-key -k token -f /tmp/key" +
		" && ./gradlew publish --no-daemon" +
		" && python3 upload.py"
	if desc.Run.Command.Text != want {
		t.Errorf("command = %q, want %q", desc.Run.Command.Text, want)
	}

	if got := desc.Worker["max-run-time"]; got != 1800 {
		t.Errorf("worker config max-run-time = %v, want 1800", got)
	}
}

func TestTransform_TaskReferenceCommand(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "signing",
		Description: "",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using": "run-commands",
			"commands": []any{
				[]any{"echo", map[string]any{"task-reference": "<build>"}},
			},
			"workdir": "/builds",
		},
		Attributes: nil,
	}

	desc := transform(t, job)

	if desc.Run.Command.Kind != taskdesc.TaskReferenceCommand {
		t.Errorf("command kind = %v, want TaskReferenceCommand", desc.Run.Command.Kind)
	}
}

func TestTransform_ConflictingReferences(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "conflict",
		Description: "",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using": "run-commands",
			"commands": []any{
				[]any{"curl", map[string]any{"artifact-reference": "<build/target.zip>"}},
				[]any{"echo", map[string]any{"task-reference": "<build>"}},
			},
			"workdir": "/builds",
		},
		Attributes: nil,
	}

	err := run.NewRegistry().Transform(context.Background(), job, taskdesc.New(job.Name))
	if !errors.Is(err, run.ErrConflictingReferences) {
		t.Errorf("Transform() error = %v, want ErrConflictingReferences", err)
	}
}

func TestTransform_InvalidRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  map[string]any
	}{
		{
			name: "missing commands",
			run: map[string]any{
				"using":   "run-commands",
				"workdir": "/builds",
			},
		},
		{
			name: "unknown key",
			run: map[string]any{
				"using":    "run-commands",
				"commands": []any{[]any{"true"}},
				"workdir":  "/builds",
				"bogus":    true,
			},
		},
		{
			name: "two-key reference",
			run: map[string]any{
				"using": "run-commands",
				"commands": []any{
					[]any{map[string]any{"task-reference": "<a>", "artifact-reference": "<b>"}},
				},
				"workdir": "/builds",
			},
		},
		{
			name: "secret missing key",
			run: map[string]any{
				"using":    "run-commands",
				"commands": []any{[]any{"true"}},
				"workdir":  "/builds",
				"secrets":  []any{map[string]any{"name": "a", "path": "/tmp/a"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := &run.Job{
				Name:        "invalid",
				Description: "",
				Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
				Run:         tt.run,
				Attributes:  nil,
			}

			err := run.NewRegistry().Transform(context.Background(), job, taskdesc.New(job.Name))
			if !errors.Is(err, run.ErrInvalidRun) {
				t.Errorf("Transform() error = %v, want ErrInvalidRun", err)
			}
		})
	}
}

func TestTransform_UnknownFlavor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		implementation string
		using          string
	}{
		{name: "gradlew on generic-worker", implementation: "generic-worker", using: "gradlew"},
		{name: "unknown using", implementation: "docker-worker", using: "make"},
		{name: "unknown worker", implementation: "scriptworker", using: "run-commands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := &run.Job{
				Name:        "unknown",
				Description: "",
				Worker:      run.Worker{Implementation: tt.implementation, Config: nil},
				Run:         map[string]any{"using": tt.using},
				Attributes:  nil,
			}

			err := run.NewRegistry().Transform(context.Background(), job, taskdesc.New(job.Name))
			if !errors.Is(err, run.ErrUnknownFlavor) {
				t.Errorf("Transform() error = %v, want ErrUnknownFlavor", err)
			}
		})
	}
}

func TestTransform_AttributesStamped(t *testing.T) {
	t.Parallel()

	job := &run.Job{
		Name:        "attrs",
		Description: "described",
		Worker:      run.Worker{Implementation: "docker-worker", Config: nil},
		Run: map[string]any{
			"using":    "run-commands",
			"commands": []any{[]any{"true"}},
			"workdir":  "/builds",
		},
		Attributes: map[string]any{"run-on-pr-type": "full-ci"},
	}

	desc := transform(t, job)

	if desc.Description != "described" {
		t.Errorf("description = %q, want %q", desc.Description, "described")
	}

	if got := desc.Attributes["run-on-pr-type"]; got != "full-ci" {
		t.Errorf("attributes = %v, missing run-on-pr-type", desc.Attributes)
	}
}
