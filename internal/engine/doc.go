// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package engine compiles handlebars sources into self-contained documents and
// loads those documents back into executable artifacts.
package engine
