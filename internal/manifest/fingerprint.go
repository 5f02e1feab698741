// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const fingerprintSalt = "LncFilesSalt"

// Fingerprint hashes the salt and the (base name, modified time) pair of each
// path, in order. Without paths it uses Candidates. The result keys the
// persisted manifest; it does not replace per-file staleness checks.
func (m *Manifest) Fingerprint(paths ...string) string {
	if len(paths) == 0 {
		paths = m.Candidates()
	}
	return Fingerprint(paths...)
}

// Fingerprint is the directory-independent form of Manifest.Fingerprint.
func Fingerprint(paths ...string) string {
	h := xxhash.New()
	_, _ = h.WriteString(fingerprintSalt)
	for _, p := range paths {
		mod, _ := modTime(p)
		_, _ = h.WriteString(filepath.Base(p))
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(strconv.FormatInt(mod, 10))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
