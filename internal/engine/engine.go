// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/aymerick/raymond"
)

// Artifact renders a compiled template against a data tree.
type Artifact func(data map[string]any) (string, error)

// Noop is handed out for templates that have not been compiled yet. It always
// renders the empty string.
func Noop(map[string]any) (string, error) {
	return "", nil
}

// Document is the compiled form of a template. Every partial the template
// reaches, directly or through other partials, is inlined so a document can be
// executed without access to the partials directory.
type Document struct {
	Template string            `json:"template"`
	Partials map[string]string `json:"partials,omitempty"`
}

// partialRegex matches partial invocations such as {{> name}}, {{~> name ctx}}
// and {{#> layout}}. Dynamic partials ({{> (lookup ...)}}) are not matched.
var partialRegex = regexp.MustCompile(`\{\{~?#?>\s*([A-Za-z0-9_\-./]+)`)

// Engine is the default compiler used by the manifest.
type Engine struct{}

// Compile implements the manifest compiler boundary.
func (Engine) Compile(source string, resolvePartial func(name string) string) (string, error) {
	return Compile(source, resolvePartial)
}

// Load implements the manifest artifact loader boundary.
func (Engine) Load(compiled string) (Artifact, error) {
	return Load(compiled)
}

// Compile validates source and returns the compiled document text. Partials
// are looked up through resolvePartial; an unknown partial resolves to "" and
// renders as nothing. The output depends only on the template and partial
// sources, so compiling unchanged input twice yields identical bytes.
func Compile(source string, resolvePartial func(name string) string) (string, error) {
	if _, err := raymond.Parse(source); err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	doc := Document{Template: source}

	partials := collectPartials(source, resolvePartial)
	if len(partials) > 0 {
		doc.Partials = make(map[string]string, len(partials))
	}
	for name, content := range partials {
		if _, err := raymond.Parse(content); err != nil {
			return "", fmt.Errorf("parse partial %q: %w", name, err)
		}
		doc.Partials[name] = content
	}

	// encoding/json sorts map keys, which keeps the output stable.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode compiled template: %w", err)
	}

	return buf.String(), nil
}

// Load turns compiled document text back into an executable Artifact.
func Load(compiled string) (Artifact, error) {
	var doc Document
	if err := json.Unmarshal([]byte(compiled), &doc); err != nil {
		return nil, fmt.Errorf("decode compiled template: %w", err)
	}

	tpl, err := raymond.Parse(doc.Template)
	if err != nil {
		return nil, fmt.Errorf("parse compiled template: %w", err)
	}

	names := make([]string, 0, len(doc.Partials))
	for name := range doc.Partials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tpl.RegisterPartial(name, doc.Partials[name])
	}

	return func(data map[string]any) (string, error) {
		return tpl.Exec(data)
	}, nil
}

// ReferencedPartials returns the distinct partial names invoked by source, in
// order of first appearance.
func ReferencedPartials(source string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range partialRegex.FindAllStringSubmatch(source, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// collectPartials walks partial references breadth first. Each name is
// resolved once, so recursive partials terminate.
func collectPartials(source string, resolvePartial func(name string) string) map[string]string {
	found := map[string]string{}
	queue := ReferencedPartials(source)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := found[name]; ok {
			continue
		}

		content := ""
		if resolvePartial != nil {
			content = resolvePartial(name)
		}
		if content == "" {
			log.Debugf("partial %q resolved to empty content", name)
		}
		found[name] = content
		queue = append(queue, ReferencedPartials(content)...)
	}

	return found
}
