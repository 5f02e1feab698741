// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// hbsctl is the main package for the hbsctl command line tool, an
// incremental compile cache for handlebars templates. It wires the CLI,
// delegates to internal packages, and serves as the entry point.
package main
