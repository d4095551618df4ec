// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config defines the graph configuration of the task-graph generator
// and the parser for it. The configuration is read from a TOML file,
// "taskgraph.toml" by default.
package config

import (
	"github.com/rvandermeulen/application-services/internal/logging"
)

// Default values used when the config file sets nothing.
const (
	defaultFileName    = "taskgraph.toml"
	defaultKindDir     = "taskcluster/kinds"
	defaultTrustDomain = "app-services"
	defaultIndexURL    = "https://firefox-ci-tc.services.mozilla.com/api/index/v1"
)

// Config is the parsed graph configuration of the generator run. There should
// be only one effective Config per run.
type Config struct {
	// TrustDomain is the Taskcluster trust domain of the project. Index
	// routes and cache scopes are built under it.
	TrustDomain string `mapstructure:"trust_domain"`

	// Project is the name of the project the graph is generated for.
	Project string `mapstructure:"project"`

	// Repository is the source repository of the project.
	Repository string `mapstructure:"repository"`

	// KindDir is the directory the kind documents are read from.
	KindDir string `mapstructure:"kind_dir"`

	// IndexURL is the base URL of the Taskcluster index service used by the
	// target-task filters.
	IndexURL string `mapstructure:"index_url"`

	// Logging contains the config values for logging.
	Logging logging.Config `mapstructure:"logging"`
}

// DefaultConfig returns the default configuration of the generator.
func DefaultConfig() *Config {
	return &Config{
		TrustDomain: defaultTrustDomain,
		Project:     "application-services",
		Repository:  "https://github.com/rvandermeulen/application-services",
		KindDir:     defaultKindDir,
		IndexURL:    defaultIndexURL,
		Logging:     logging.DefaultConfig(),
	}
}
