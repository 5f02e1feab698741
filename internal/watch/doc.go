// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package watch signals, debounced, when files change under a set of
// template source directories.
package watch
