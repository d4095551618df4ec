// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package fspath implements utility routines for the file system paths the
// generator takes from its command line and configuration through the [Path]
// type.
package fspath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// A Path is a file system path.
type Path string

// New returns a new path by joining the given elements using [filepath.Join].
// Clean is called on the result.
func New(elem ...string) Path {
	return Path(filepath.Join(elem...))
}

// Abs returns an absolute representation of the path. Environment variables
// and a leading "~" are expanded first, and relative paths are joined with
// the current working directory.
func (p Path) Abs() (Path, error) {
	p, err := p.ExpandEnv().ExpandUser()
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", string(p), err)
	}

	return Path(abs), nil
}

// ExpandEnv replaces ${var} or $var in the path according to the values of
// the current environment variables. References to undefined variables are
// replaced by an empty string.
func (p Path) ExpandEnv() Path {
	return Path(os.ExpandEnv(string(p)))
}

// ExpandUser replaces a leading "~" in the path with the current user's home
// directory.
func (p Path) ExpandUser() (Path, error) {
	if p != "~" && !strings.HasPrefix(string(p), "~/") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home dir: %w", err)
	}

	if p == "~" {
		return Path(home), nil
	}

	return New(home, string(p[2:])), nil
}

// Dir returns all but the last element of the path, typically the path's
// directory. It wraps [filepath.Dir].
func (p Path) Dir() Path {
	return Path(filepath.Dir(string(p)))
}

// IsAbs reports whether the path is absolute.
func (p Path) IsAbs() bool {
	return filepath.IsAbs(string(p))
}

// String returns the path as a string.
func (p Path) String() string {
	return string(p)
}
