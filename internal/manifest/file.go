// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/hbsctl/internal/engine"
)

// Entry is the persisted, metadata-only form of a File. Content and compiled
// artifacts are never persisted; they are re-derived from disk on demand.
type Entry struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Partial     bool   `json:"partial"`
	Modified    int64  `json:"modified"`
	NeedsUpdate bool   `json:"needsUpdate"`
}

// Reason explains why a File needs an update.
type Reason int

const (
	Fresh Reason = iota
	TargetMissing
	SourceNewer
	ModifiedMismatch
)

func (r Reason) String() string {
	switch r {
	case TargetMissing:
		return "target missing"
	case SourceNewer:
		return "source newer"
	case ModifiedMismatch:
		return "modified"
	default:
		return "fresh"
	}
}

// State tracks what the registration pass did to a File.
type State int

const (
	Scanned State = iota
	Touched
	Compiled
	Failed
)

func (s State) String() string {
	switch s {
	case Touched:
		return "touched"
	case Compiled:
		return "compiled"
	case Failed:
		return "failed"
	default:
		return "fresh"
	}
}

// Loader turns compiled text into an executable artifact.
type Loader func(compiled string) (engine.Artifact, error)

// FileOption customizes a File at construction.
type FileOption func(*File)

// WithIncremental enables loading compiled artifacts from the target path.
func WithIncremental(enabled bool) FileOption {
	return func(f *File) { f.incremental = enabled }
}

// WithLoader sets the artifact loader used by CompiledArtifact.
func WithLoader(load Loader) FileOption {
	return func(f *File) { f.load = load }
}

// File is one template or partial source together with its compiled target.
type File struct {
	entry       Entry
	reason      Reason
	state       State
	incremental bool
	load        Loader

	content  deferred[string]
	artifact deferred[engine.Artifact]
}

// NewFile builds a File from entry and computes its staleness once, against
// the filesystem as it is right now. The NeedsUpdate flag of entry is ignored.
func NewFile(entry Entry, opts ...FileOption) *File {
	f := &File{entry: entry}
	for _, opt := range opts {
		opt(f)
	}
	f.reason = staleness(f.entry)
	f.entry.NeedsUpdate = f.reason != Fresh
	return f
}

// staleness checks, in order: target missing, source newer than target,
// source modified time differs from the recorded one. The first hit wins.
func staleness(e Entry) Reason {
	if e.Target != "" && !exists(e.Target) {
		return TargetMissing
	}

	srcMod, srcOK := modTime(e.Source)
	if e.Source != "" && e.Target != "" && srcOK {
		if tgtMod, ok := modTime(e.Target); ok && srcMod > tgtMod {
			return SourceNewer
		}
	}

	if e.Source != "" && srcMod != e.Modified {
		return ModifiedMismatch
	}

	return Fresh
}

func (f *File) Name() string       { return f.entry.Name }
func (f *File) SourcePath() string { return f.entry.Source }
func (f *File) TargetPath() string { return f.entry.Target }
func (f *File) IsPartial() bool    { return f.entry.Partial }
func (f *File) NeedsUpdate() bool  { return f.entry.NeedsUpdate }
func (f *File) Modified() int64    { return f.entry.Modified }

// Reason reports why the File was found stale at construction.
func (f *File) Reason() Reason { return f.reason }

// State reports what the registration pass did to the File.
func (f *File) State() State { return f.state }

// Content returns the normalized source text, reading it on first access.
// An unreadable source yields "".
func (f *File) Content() string {
	return f.content.get(func() (string, bool) {
		if f.entry.Source == "" {
			return "", false
		}
		raw, err := os.ReadFile(f.entry.Source)
		if err != nil {
			log.WithError(err).Debugf("failed to read %s", f.entry.Source)
			return "", false
		}
		return Normalize(string(raw)), true
	}, "")
}

// Normalize rewrites the fractal.build partial dialect into plain handlebars:
// "{{> @name" becomes "{{> name" and a trailing " this }}" becomes "}}".
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "{{> @", "{{> ")
	s = strings.ReplaceAll(s, " this }}", "}}")
	return s
}

// MarkFreshAsTouched writes an empty sentinel at a partial's target so later
// staleness checks see a fresh target time. Partials have no compiled output
// of their own. Returns false for templates or when the write fails.
func (f *File) MarkFreshAsTouched() bool {
	if !f.entry.Partial {
		return false
	}

	f.entry.NeedsUpdate = false
	f.state = Touched
	if err := writeFile(f.entry.Target, nil); err != nil {
		log.WithError(err).Warnf("failed to touch partial %s", f.entry.Name)
		return false
	}
	return true
}

// CompiledArtifact returns the executable form of the File. A cached artifact
// is returned as is; otherwise, with incremental artifacts enabled, the
// compiled target is loaded from disk and cached. In every other case the
// result renders "".
func (f *File) CompiledArtifact() engine.Artifact {
	if f.entry.Partial {
		return engine.Noop
	}

	return f.artifact.get(func() (engine.Artifact, bool) {
		if !f.incremental || f.load == nil || !exists(f.entry.Target) {
			return nil, false
		}
		raw, err := os.ReadFile(f.entry.Target)
		if err != nil {
			log.WithError(err).Debugf("failed to read %s", f.entry.Target)
			return nil, false
		}
		artifact, err := f.load(string(raw))
		if err != nil {
			log.WithError(err).Warnf("failed to load compiled template %s", f.entry.Target)
			return nil, false
		}
		f.entry.NeedsUpdate = false
		return artifact, true
	}, engine.Noop)
}

// AsPersistable returns the metadata-only Entry for the manifest store.
func (f *File) AsPersistable() Entry {
	return f.entry
}

func (f *File) markCompiled() {
	f.entry.NeedsUpdate = false
	f.state = Compiled
	f.artifact.reset()
}

func (f *File) markFailed() {
	f.state = Failed
}

func (f *File) hasArtifact() bool {
	return f.artifact.isLoaded()
}

func (f *File) setArtifact(a engine.Artifact) {
	f.artifact.set(a)
}
