// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"

	"github.com/staranto/hbsctl/internal/output"
)

// docgen turns docs/commands/<cmd>.md into
//   - docs/man/share/man1/<bin>-<cmd>.1 (md2man over the whole page)
//   - docs/tldr/<bin>-<cmd>.md (short description plus quick examples)
//
// With -examples it prints the quick examples of every page instead.

const projectURL = "https://github.com/staranto/hbsctl"

type page struct {
	Cmd      string
	Title    string
	Short    string
	Examples []example
	Raw      []byte
}

type example struct {
	Desc string
	Cmd  string
}

func main() {
	var (
		repoRoot      string
		bin           string
		onlyIfChanged bool
		printExamples bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root")
	flag.StringVar(&bin, "bin", "hbsctl", "binary name used in page names")
	flag.BoolVar(&onlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.BoolVar(&printExamples, "examples", false, "print the quick examples and exit")
	flag.Parse()

	pages, err := loadPages(filepath.Join(repoRoot, "docs", "commands"))
	if err != nil {
		fatalf("%v", err)
	}

	if printExamples {
		var rows [][2]string
		for _, p := range pages {
			for _, ex := range p.Examples {
				rows = append(rows, [2]string{ex.Cmd, ex.Desc})
			}
		}
		output.DumpExamples(os.Stdout, rows)
		return
	}

	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")
	for _, dir := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatalf("creating %s: %v", dir, err)
		}
	}

	for _, p := range pages {
		manPath := filepath.Join(manOutDir, fmt.Sprintf("%s-%s.1", bin, p.Cmd))
		if err := writeFileIfChanged(manPath, md2man.Render(p.Raw), onlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", p.Cmd, err)
		}

		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("%s-%s.md", bin, p.Cmd))
		if err := writeFileIfChanged(tldrPath, []byte(buildTLDR(bin, p)), onlyIfChanged); err != nil {
			fatalf("writing tldr page for %s: %v", p.Cmd, err)
		}
	}
}

// loadPages reads every command page in dir, ordered by command name.
func loadPages(dir string) ([]page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading commands dir %s: %w", dir, err)
	}

	var pages []page
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		pages = append(pages, parsePage(strings.TrimSuffix(e.Name(), ".md"), raw))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no command markdown found under %s", dir)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Cmd < pages[j].Cmd })
	return pages, nil
}

func parsePage(cmd string, raw []byte) page {
	md := string(raw)
	title, short := extractTitleAndShortDesc(md)
	return page{
		Cmd:      cmd,
		Title:    title,
		Short:    short,
		Examples: extractQuickExamples(md),
		Raw:      raw,
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, content []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(content)) {
			return nil
		}
	}
	return os.WriteFile(path, content, 0o644)
}

var h1Re = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// section returns the lines following the header named name, up to the next
// header.
func section(md string, name string) []string {
	var (
		out []string
		in  bool
	)
	for _, ln := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(ln)
		if strings.HasPrefix(trimmed, "#") && !in {
			in = strings.EqualFold(strings.TrimSpace(strings.TrimLeft(trimmed, "#")), name)
			continue
		}
		if in && strings.HasPrefix(trimmed, "## ") {
			break
		}
		if in {
			out = append(out, strings.TrimRight(ln, "\r"))
		}
	}
	return out
}

func extractTitleAndShortDesc(md string) (title, short string) {
	if m := h1Re.FindStringSubmatch(md); m != nil {
		title = strings.TrimSpace(m[1])
	}

	var b strings.Builder
	for _, ln := range section(md, "Short description") {
		if strings.TrimSpace(ln) == "" {
			if b.Len() > 0 {
				break
			}
			continue
		}
		b.WriteString(strings.TrimSpace(ln))
		b.WriteString(" ")
	}
	short = strings.TrimSpace(b.String())

	if short == "" && title != "" {
		short = title + "."
	}
	return
}

// extractQuickExamples reads the first fenced block of the "Quick examples"
// section. A "# ..." line describes the command line that follows it.
func extractQuickExamples(md string) []example {
	var (
		exs     []example
		desc    string
		inFence bool
	)
	for _, ln := range section(md, "Quick examples") {
		s := strings.TrimSpace(ln)
		if strings.HasPrefix(s, "```") {
			if inFence {
				break
			}
			inFence = true
			continue
		}
		if !inFence || s == "" {
			continue
		}
		if strings.HasPrefix(s, "#") {
			desc = strings.TrimSpace(strings.TrimPrefix(s, "#"))
			continue
		}
		if desc == "" {
			desc = "Example"
		}
		exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(s), " ")})
		desc = ""
	}
	return exs
}

func buildTLDR(bin string, p page) string {
	var b strings.Builder
	b.WriteString("# " + bin + "-" + p.Cmd + "\n\n")
	switch {
	case p.Short != "":
		b.WriteString("> " + p.Short + "\n")
	case p.Title != "":
		b.WriteString("> " + p.Title + "\n")
	default:
		b.WriteString("> " + bin + " " + p.Cmd + "\n")
	}
	b.WriteString("> More information: " + projectURL + ".\n\n")

	if len(p.Examples) == 0 {
		b.WriteString("- Show help for the command:\n\n")
		b.WriteString("`" + bin + " " + p.Cmd + " --help`\n")
		return b.String()
	}

	for i, ex := range p.Examples {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + ex.Desc + ":\n\n")
		b.WriteString("`" + ex.Cmd + "`\n")
	}
	return b.String()
}
