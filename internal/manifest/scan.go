// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// FilterDirByExtension lists the regular files directly inside dir whose
// extension is ext, in directory order. A missing directory yields nothing.
func FilterDirByExtension(dir string, ext string) []string {
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).Debugf("skipping source directory %s", dir)
		return nil
	}

	var result []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.TrimPrefix(filepath.Ext(e.Name()), ".") != ext {
			continue
		}
		result = append(result, filepath.Join(dir, e.Name()))
	}
	return result
}

// Candidates lists every source file with the input extension, templates
// first, including ignored files.
func (m *Manifest) Candidates() []string {
	return append(
		FilterDirByExtension(m.opts.TemplatesDir, m.opts.InputExt),
		FilterDirByExtension(m.opts.PartialsDir, m.opts.InputExt)...,
	)
}

// TargetPath returns the compiled-output path for name.
func (m *Manifest) TargetPath(name string, partial bool) string {
	prefix := ""
	if partial {
		prefix = PartialPrefix
	}
	return filepath.Join(m.opts.CacheRoot, prefix+name+"."+m.opts.OutputExt)
}

// Scan builds a File for every template and partial source. Files whose name
// starts with IgnorePrefix are skipped.
func (m *Manifest) Scan() []*File {
	dirs := []struct {
		path    string
		partial bool
	}{
		{m.opts.TemplatesDir, false},
		{m.opts.PartialsDir, true},
	}

	var files []*File
	for _, dir := range dirs {
		for _, source := range FilterDirByExtension(dir.path, m.opts.InputExt) {
			name := strings.TrimSuffix(filepath.Base(source), "."+m.opts.InputExt)
			if strings.HasPrefix(name, IgnorePrefix) {
				continue
			}
			mod, _ := modTime(source)
			files = append(files, m.newFile(Entry{
				Name:     name,
				Source:   source,
				Target:   m.TargetPath(name, dir.partial),
				Partial:  dir.partial,
				Modified: mod,
			}))
		}
	}

	log.Debugf("scanned %d files", len(files))
	return files
}
