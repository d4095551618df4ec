// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package transforms holds the task transforms that rewrite kind task
// definitions before the run transforms produce descriptors.
package transforms

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rvandermeulen/application-services/internal/params"
)

// publishLevel is the trust level at which the old toolchain index routes are
// published.
const publishLevel = 3

// toolchainOldIndex maps toolchain task names to the legacy index route
// patterns that older consumers still resolve. The pattern is completed with
// the git tree SHA of the libs directory.
//
//nolint:gochecknoglobals,lll // static route table
var toolchainOldIndex = map[string]string{
	"android":       "index.project.application-services.application-services.build.libs.android.%s",
	"desktop-linux": "index.project.application-services.application-services.build.libs.desktop.linux.%s",
	"desktop-macos": "index.project.application-services.application-services.build.libs.desktop.macos.%s",
}

// gitTreeSHA resolves the git tree SHA of a directory at HEAD. It is a
// variable so that tests can stub it out.
//
//nolint:gochecknoglobals // stubbed in tests
var gitTreeSHA = func(dir string) (string, error) {
	out, err := exec.Command("git", "rev-parse", "HEAD:"+dir).Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve tree SHA for %q: %w", dir, err)
	}

	return strings.TrimSpace(string(out)), nil
}

// shaCache caches the resolved tree SHAs per directory for the duration of
// the process.
//
//nolint:gochecknoglobals // process-wide cache
var shaCache sync.Map

// cachedTreeSHA returns the git tree SHA of the directory, resolving it at
// most once per process.
func cachedTreeSHA(dir string) (string, error) {
	if sha, ok := shaCache.Load(dir); ok {
		return sha.(string), nil //nolint:forcetypeassert // only strings are stored
	}

	sha, err := gitTreeSHA(dir)
	if err != nil {
		return "", err
	}

	shaCache.Store(dir, sha)

	return sha, nil
}

// Toolchain resolves the keyed-by routes of the toolchain task definitions
// and, on publishing trust levels, appends the legacy toolchain index routes.
// The task maps are modified in place and returned in the given order.
func Toolchain(_ context.Context, p *params.Parameters, tasks []map[string]any) ([]map[string]any, error) {
	choices := map[string]string{"tasks-for": p.TasksFor}

	for _, task := range tasks {
		name, _ := task["name"].(string)

		if rawRoutes, ok := task["routes"]; ok {
			resolved, err := resolveKeyedBy(rawRoutes, choices)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", name, err)
			}

			task["routes"] = resolved
		}

		pattern, ok := toolchainOldIndex[name]
		if !ok || p.Level != publishLevel {
			continue
		}

		sha, err := cachedTreeSHA("libs")
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}

		routes, _ := task["routes"].([]any)
		task["routes"] = append(routes, fmt.Sprintf(pattern, sha))
	}

	return tasks, nil
}
