// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferencedPartials(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "no partials",
			source: "{{ title }}",
			want:   nil,
		},
		{
			name:   "single partial",
			source: "<div>{{> piece-of-cake }}</div>",
			want:   []string{"piece-of-cake"},
		},
		{
			name:   "partial with context and whitespace control",
			source: "{{~> card item}}{{> footer}}{{> card other}}",
			want:   []string{"card", "footer"},
		},
		{
			name:   "block partial",
			source: "{{#> layout}}body{{/layout}}",
			want:   []string{"layout"},
		},
		{
			name:   "dynamic partial is ignored",
			source: "{{> (lookup . 'name') }}",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReferencedPartials(tt.source))
		})
	}
}

func TestCompileAndLoad(t *testing.T) {
	partials := map[string]string{
		"greeting":    "Hello {{ name }}{{> punctuation }}",
		"punctuation": "!",
	}
	resolve := func(name string) string { return partials[name] }

	compiled, err := Compile("<p>{{> greeting }}</p>", resolve)
	require.NoError(t, err)
	assert.Contains(t, compiled, `"greeting"`)
	assert.Contains(t, compiled, `"punctuation"`)

	artifact, err := Load(compiled)
	require.NoError(t, err)

	out, err := artifact(map[string]any{"name": "Kirby"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello Kirby!</p>", out)
}

func TestCompileIsDeterministic(t *testing.T) {
	partials := map[string]string{"a": "A{{> b}}", "b": "B", "c": "C"}
	resolve := func(name string) string { return partials[name] }
	source := "{{> c}}{{> a}}{{ title }}"

	first, err := Compile(source, resolve)
	require.NoError(t, err)
	second, err := Compile(source, resolve)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompileRecursivePartialTerminates(t *testing.T) {
	partials := map[string]string{"tree": "{{#each children}}{{> tree}}{{/each}}"}
	compiled, err := Compile("{{> tree}}", func(name string) string { return partials[name] })
	require.NoError(t, err)
	assert.Contains(t, compiled, `"tree"`)
}

func TestCompileUnknownPartialRendersEmpty(t *testing.T) {
	compiled, err := Compile("[{{> missing }}]", func(string) string { return "" })
	require.NoError(t, err)

	artifact, err := Load(compiled)
	require.NoError(t, err)
	out, err := artifact(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := Compile("{{#if title}}unclosed", nil)
	assert.Error(t, err)

	_, err = Compile("{{> broken}}", func(string) string { return "{{#if open}}never closed" })
	assert.ErrorContains(t, err, "broken")
}

func TestLoadInvalidDocument(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load("not json")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	out, err := Noop(map[string]any{"title": "ignored"})
	assert.NoError(t, err)
	assert.Equal(t, "", out)
}
