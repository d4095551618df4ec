// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package transforms

import (
	"errors"
	"fmt"
	"strings"
)

// errKeyedBy is returned when a keyed-by value cannot be resolved.
var errKeyedBy = errors.New("cannot resolve keyed-by value")

// resolveKeyedBy recursively resolves "by-<keyword>" mappings in the given
// value. A keyed-by value is a single-key mapping whose key names a keyword
// and whose value maps keyword values to alternatives; the alternative
// matching the keyword's value in choices is picked, falling back to the
// "default" entry. Values that are not keyed-by mappings are returned
// unchanged.
func resolveKeyedBy(value any, choices map[string]string) (any, error) {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return value, nil
	}

	for key, alternatives := range m {
		if !strings.HasPrefix(key, "by-") {
			return value, nil
		}

		keyword := strings.TrimPrefix(key, "by-")

		alts, ok := alternatives.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a mapping", errKeyedBy, key)
		}

		choice, ok := choices[keyword]
		if ok {
			if alt, ok := alts[choice]; ok {
				return resolveKeyedBy(alt, choices)
			}
		}

		if alt, ok := alts["default"]; ok {
			return resolveKeyedBy(alt, choices)
		}

		return nil, fmt.Errorf("%w: no entry for %s=%q and no default", errKeyedBy, keyword, choice)
	}

	return value, nil
}
