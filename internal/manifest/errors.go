// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"fmt"
)

// ErrNoDefault is matched by every ConfigError.
var ErrNoDefault = errors.New("no default template")

// ConfigError reports that neither the requested name nor the "default"
// fallback exist in the current file set.
type ConfigError struct {
	Name string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("template %q not found and no %q template to fall back to", e.Name, DefaultName)
}

// Is lets errors.Is(err, ErrNoDefault) match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrNoDefault
}
