// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package fspath_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rvandermeulen/application-services/internal/fspath"
)

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{path: "~", want: home},
		{path: "~/taskgraph.toml", want: filepath.Join(home, "taskgraph.toml")},
		{path: "/etc/taskgraph.toml", want: "/etc/taskgraph.toml"},
		{path: "taskgraph.toml", want: "taskgraph.toml"},
		{path: "~user/taskgraph.toml", want: "~user/taskgraph.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := fspath.Path(tt.path).ExpandUser()
			if err != nil {
				t.Fatalf("ExpandUser(%q) returned an error: %v", tt.path, err)
			}

			if got.String() != tt.want {
				t.Errorf("ExpandUser(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestAbs(t *testing.T) {
	t.Setenv("ASGRAPH_TEST_DIR", "/opt/graph")

	got, err := fspath.Path("$ASGRAPH_TEST_DIR/kinds").Abs()
	if err != nil {
		t.Fatalf("Abs() returned an error: %v", err)
	}

	if got.String() != "/opt/graph/kinds" {
		t.Errorf("Abs() = %q, want %q", got, "/opt/graph/kinds")
	}

	if !got.IsAbs() {
		t.Errorf("Abs() returned a relative path %q", got)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if got := fspath.New("a", "b", "..", "c"); got.String() != filepath.Join("a", "c") {
		t.Errorf("New() = %q, want %q", got, filepath.Join("a", "c"))
	}
}
