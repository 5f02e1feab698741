// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package render assembles the data handed to a compiled template and runs
// the template through a manifest.Handle.
//
// Assembly happens in three steps. Configured queries such as "site.title"
// are injected as nested placeholders ({"site": {"title": "{{site.title}}"}}),
// the host's ordered model fields are merged on top, and finally every string
// holding a {{ path }} placeholder is resolved against the site, page and
// kirby entries of the input data.
package render
