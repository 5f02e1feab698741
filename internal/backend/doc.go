// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package backend opens the store that persists manifests between runs: a
// directory of files, a sqlite database or an S3 bucket.
package backend
