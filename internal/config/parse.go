// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/rvandermeulen/application-services/internal/log"
)

// Errors returned from the configuration parser.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	errConfigFileNotFound = errors.New("config file not found")
)

// Parse reads and parses the configuration file at path. If path is empty,
// the default file name is resolved from the current directory; a missing
// default file is not an error and yields the default configuration.
func Parse(ctx context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultFileName
	}

	data, err := os.ReadFile(path) //nolint:gosec // the config file path is user input
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			log.Debug(ctx, "no config file, using defaults")

			return cfg, nil
		}

		return nil, fmt.Errorf("%w: %w", errConfigFileNotFound, err)
	}

	log.Trace(ctx, "read config file", "path", path)

	rawCfg := make(map[string]any)

	if err := toml.Unmarshal(data, &rawCfg); err != nil {
		return nil, fmt.Errorf("failed to decode the config file: %w", err)
	}

	normalizeKeys(rawCfg)

	decoderConfig := &mapstructure.DecoderConfig{ //nolint:exhaustruct // use default values
		ErrorUnused: true,
		Result:      cfg,
	}

	d, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := d.Decode(rawCfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	log.Debug(ctx, "parsed config", "cfg", cfg)

	return cfg, nil
}

// normalizeKeys checks the config value keys in the given raw config map and
// changes them into the wanted format ("snake_case") in case the config
// contains something in kebab-case or camel-case. This way the config file
// keys may use whichever style is idiomatic for the author.
func normalizeKeys(cfg map[string]any) {
	if cfg == nil {
		return
	}

	for k, v := range cfg {
		key := ""

		for i, r := range k {
			if r == '-' {
				key += "_"

				continue
			}

			if i > 0 && unicode.IsUpper(r) && !strings.HasSuffix(key, "_") {
				key += "_"
			}

			key += strings.ToLower(string(r))
		}

		if k != key {
			delete(cfg, k)

			cfg[key] = v
		}

		if m, ok := v.(map[string]any); ok {
			normalizeKeys(m)
		}
	}
}
