// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"path/filepath"

	"github.com/apex/log"

	"github.com/staranto/hbsctl/internal/engine"
)

// lookup finds name among the working set, retrying once with DefaultName.
// Matching is exact and case sensitive.
func (m *Manifest) lookup(name string, templatesOnly bool) (*File, error) {
	for _, candidate := range []string{name, DefaultName} {
		for _, f := range m.files {
			if templatesOnly && f.IsPartial() {
				continue
			}
			if f.Name() == candidate {
				return f, nil
			}
		}
		if candidate == DefaultName {
			break
		}
		log.Debugf("no template named %q, falling back to %q", name, DefaultName)
	}
	return nil, &ConfigError{Name: name}
}

// SourcePath returns the absolute source path of name or of the default
// template.
func (m *Manifest) SourcePath(name string) (string, error) {
	f, err := m.lookup(name, false)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(f.SourcePath())
	if err != nil {
		return f.SourcePath(), nil
	}
	return abs, nil
}

// CompiledPath returns the compiled target path of name or of the default
// template.
func (m *Manifest) CompiledPath(name string) (string, error) {
	f, err := m.lookup(name, false)
	if err != nil {
		return "", err
	}
	return f.TargetPath(), nil
}

// Executable returns the artifact of template name or of the default
// template. Partials are never executable. With incremental artifacts
// disabled the template is compiled in process on first use.
func (m *Manifest) Executable(name string) (engine.Artifact, error) {
	f, err := m.lookup(name, true)
	if err != nil {
		return nil, err
	}

	if !m.opts.Incremental && !f.hasArtifact() {
		compiled, err := m.compiler.Compile(f.Content(), m.PartialContent)
		if err != nil {
			log.WithError(err).Warnf("failed to compile %s", f.SourcePath())
			return engine.Noop, nil
		}
		artifact, err := m.compiler.Load(compiled)
		if err != nil {
			log.WithError(err).Warnf("failed to load %s", f.SourcePath())
			return engine.Noop, nil
		}
		f.setArtifact(artifact)
	}

	return f.CompiledArtifact(), nil
}
