// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package kind_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rvandermeulen/application-services/internal/kind"
	"github.com/rvandermeulen/application-services/internal/run"
)

// writeKind writes a kind document under dir and returns dir.
func writeKind(t *testing.T, dir, name, content string) {
	t.Helper()

	kindDir := filepath.Join(dir, name)
	if err := os.MkdirAll(kindDir, 0o755); err != nil {
		t.Fatalf("failed to create kind directory: %v", err)
	}

	if err := os.WriteFile(filepath.Join(kindDir, "kind.yml"), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write kind document: %v", err)
	}
}

const buildKind = `
tasks:
  android:
    description: build the android packages
    worker:
      implementation: docker-worker
      max-run-time: 1800
    run:
      using: gradlew
      gradlew: [assemble]
      workdir: /builds/worker/checkouts
    attributes:
      run-on-pr-type: full-ci
  lint:
    description: run the linters
    worker:
      implementation: docker-worker
    run:
      using: run-commands
      commands:
        - [./gradlew, ktlint]
      workdir: /builds/worker/checkouts
`

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeKind(t, dir, "build", buildKind)

	k, err := kind.Load(dir, "build")
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}

	if k.Name != "build" {
		t.Errorf("Name = %q, want %q", k.Name, "build")
	}

	if len(k.Jobs) != 2 {
		t.Fatalf("Load() returned %d jobs, want 2", len(k.Jobs))
	}

	// Jobs are sorted by name.
	if k.Jobs[0].Name != "android" || k.Jobs[1].Name != "lint" {
		t.Errorf("job names = [%q, %q], want [android, lint]", k.Jobs[0].Name, k.Jobs[1].Name)
	}

	if k.Jobs[0].Worker.Implementation != "docker-worker" {
		t.Errorf("worker implementation = %q, want docker-worker", k.Jobs[0].Worker.Implementation)
	}

	if got := k.Jobs[0].Worker.Config["max-run-time"]; got != 1800 {
		t.Errorf("worker config max-run-time = %v, want 1800", got)
	}

	if k.Jobs[0].Using() != "gradlew" {
		t.Errorf("Using() = %q, want gradlew", k.Jobs[0].Using())
	}
}

func TestLoad_InvalidDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "tasks: ["},
		{name: "no tasks", content: "tasks: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeKind(t, dir, "broken", tt.content)

			if _, err := kind.Load(dir, "broken"); !errors.Is(err, kind.ErrInvalidKind) {
				t.Errorf("Load() error = %v, want ErrInvalidKind", err)
			}
		})
	}
}

func TestLoadAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeKind(t, dir, "build", buildKind)
	writeKind(t, dir, "test", `
tasks:
  unit:
    worker:
      implementation: docker-worker
    run:
      using: run-commands
      commands:
        - [./gradlew, test]
      workdir: /builds/worker/checkouts
`)

	// Directories without a kind document are skipped.
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0o755); err != nil {
		t.Fatalf("failed to create extra directory: %v", err)
	}

	kinds, err := kind.LoadAll(dir)
	if err != nil {
		t.Fatalf("LoadAll() returned an error: %v", err)
	}

	if len(kinds) != 2 {
		t.Fatalf("LoadAll() returned %d kinds, want 2", len(kinds))
	}
}

func TestTransform(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeKind(t, dir, "build", buildKind)

	k, err := kind.Load(dir, "build")
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}

	descs, err := kind.Transform(context.Background(), run.NewRegistry(), k)
	if err != nil {
		t.Fatalf("Transform() returned an error: %v", err)
	}

	if len(descs) != 2 {
		t.Fatalf("Transform() returned %d descriptors, want 2", len(descs))
	}

	// Descriptors come back in job order regardless of the concurrent
	// transforms.
	if descs[0].Label != "build-android" || descs[1].Label != "build-lint" {
		t.Errorf("labels = [%q, %q], want [build-android, build-lint]", descs[0].Label, descs[1].Label)
	}

	if descs[0].Run.Command.Text != "./gradlew assemble" {
		t.Errorf("command = %q, want %q", descs[0].Run.Command.Text, "./gradlew assemble")
	}

	if got := descs[0].Attributes["run-on-pr-type"]; got != "full-ci" {
		t.Errorf("attributes = %v, missing run-on-pr-type", descs[0].Attributes)
	}
}

func TestTransform_FailingJob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeKind(t, dir, "broken", `
tasks:
  bad:
    worker:
      implementation: docker-worker
    run:
      using: no-such-flavor
`)

	k, err := kind.Load(dir, "broken")
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}

	if _, err := kind.Transform(context.Background(), run.NewRegistry(), k); !errors.Is(err, run.ErrUnknownFlavor) {
		t.Errorf("Transform() error = %v, want ErrUnknownFlavor", err)
	}
}
