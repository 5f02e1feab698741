// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/hbsctl/internal/cacheutil"
	"github.com/staranto/hbsctl/internal/command"
	"github.com/staranto/hbsctl/internal/config"
	mylog "github.com/staranto/hbsctl/internal/log"
	"github.com/staranto/hbsctl/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an argument set from the config file. A "+name"
// argument selects the set <command>.<name>; without one the set
// <command>.defaults is used when it exists. The set's arguments are inserted
// where the selector was, or right after the command, so later explicit
// flags still win.
func mangleArguments(args []string) []string {
	// Short-circuit for --help/-h. If help is requested, just keep the preamble
	// and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(append([]string{}, args[:2]...), "--help")
		}
	}

	// Flags before the command, or the command is completion.
	if strings.HasPrefix(args[1], "-") || args[1] == "completion" {
		return args
	}

	working := append([]string{}, args...)

	idx := 2
	set := "defaults"
	for i, a := range working[idx:] {
		if strings.HasPrefix(a, "+") && len(a) > 1 {
			set = a[1:]
			idx += i
			working = append(working[:idx], working[idx+1:]...)
			break
		}
	}

	setArgs, _ := config.GetStringSlice(working[1] + "." + set)
	for _, arg := range setArgs {
		parts := strings.Fields(arg)
		working = append(working[:idx], append(parts, working[idx:]...)...)
		idx += len(parts)
	}

	log.Debugf("idx=%d, set=%s, args=%v", idx, set, working)
	return working
}
