// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package manifest decides which handlebars templates and partials are stale,
// recompiles what is needed into the compiled-output cache and persists a
// metadata manifest so that later invocations can skip the directory scan.
//
// Any stale partial forces every template to be recompiled, because compiled
// templates inline partial sources at compile time and no dependency graph is
// kept between them.
package manifest
