// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/hbsctl/internal/manifest"
)

// ParamKeys are the entries of the input data that queries resolve against.
var ParamKeys = []string{"kirby", "site", "page"}

var placeholderRegex = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// Valuer is implemented by host values that wrap a plain value, such as a
// content field.
type Valuer interface {
	Value() any
}

// Field is one named value contributed by the host model.
type Field struct {
	Name  string
	Value any
}

// Fields is an ordered field mapping. Later fields win.
type Fields []Field

// Name turns a template file or name into the name the manifest knows:
// directory and input extension are dropped and "@" is removed.
func Name(file string, inputExt string) string {
	base := strings.TrimSuffix(filepath.Base(file), "."+inputExt)
	return strings.ReplaceAll(base, manifest.PartialPrefix, "")
}

// Merge returns dst with src merged in. Nested maps are merged when both
// sides hold a map at the same key; any other src value replaces the dst
// value. Neither argument is modified.
func Merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		dm, dok := out[k].(map[string]any)
		sm, sok := v.(map[string]any)
		if dok && sok {
			out[k] = Merge(dm, sm)
			continue
		}
		out[k] = v
	}
	return out
}

// AddQueries merges a placeholder for every dotted query into data, so
// "site.title" adds {"site": {"title": "{{site.title}}"}}.
func AddQueries(data map[string]any, queries []string) map[string]any {
	for _, q := range queries {
		if q == "" {
			continue
		}
		parts := strings.Split(q, ".")
		var nested any = "{{" + q + "}}"
		for i := len(parts) - 1; i >= 0; i-- {
			nested = map[string]any{parts[i]: nested}
		}
		data = Merge(data, nested.(map[string]any))
	}
	return data
}

// ResolveQueries walks data and replaces every {{ path }} placeholder in a
// string value with the value found at path in params. Unknown paths resolve
// to "". Valuer values are unwrapped first.
func ResolveQueries(data map[string]any, params map[string]any) map[string]any {
	raw, err := json.Marshal(params)
	if err != nil {
		log.WithError(err).Warn("query parameters are not serializable, queries left unresolved")
		raw = []byte("{}")
	}
	return resolveMap(data, raw)
}

func resolveMap(m map[string]any, params []byte) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = resolveValue(v, params)
	}
	return out
}

func resolveValue(v any, params []byte) any {
	if vv, ok := v.(Valuer); ok {
		v = vv.Value()
	}

	switch t := v.(type) {
	case map[string]any:
		return resolveMap(t, params)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = resolveValue(item, params)
		}
		return out
	case string:
		if !strings.Contains(t, "{{") || !strings.Contains(t, "}}") {
			return t
		}
		return placeholderRegex.ReplaceAllStringFunc(t, func(match string) string {
			path := placeholderRegex.FindStringSubmatch(match)[1]
			res := gjson.GetBytes(params, path)
			if !res.Exists() {
				log.Debugf("query %q resolved to nothing", path)
				return ""
			}
			return res.String()
		})
	default:
		return v
	}
}

// ModelData merges the host fields into data in order. Function values are
// called and Valuer values unwrapped.
func ModelData(data map[string]any, fields Fields) map[string]any {
	if len(fields) == 0 {
		return data
	}

	model := make(map[string]any, len(fields))
	for _, f := range fields {
		model[f.Name] = fieldValue(f.Value)
	}
	return Merge(data, model)
}

func fieldValue(v any) any {
	switch t := v.(type) {
	case func() any:
		v = t()
	case func() string:
		v = t()
	}
	if vv, ok := v.(Valuer); ok {
		v = vv.Value()
	}
	return v
}

// Params picks the query parameters out of data.
func Params(data map[string]any) map[string]any {
	params := make(map[string]any, len(ParamKeys))
	for _, k := range ParamKeys {
		params[k] = data[k]
	}
	return params
}

// Assemble builds the data handed to a template: queries are injected, model
// fields merged and queries resolved. Parameters are taken from the input
// data before any of that happens.
func Assemble(data map[string]any, fields Fields, queries []string) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	params := Params(data)

	data = AddQueries(data, queries)
	data = ModelData(data, fields)
	return ResolveQueries(data, params)
}

// Render executes the template called name, or the default template, with
// the assembled data. The Handle scopes the registration pass.
func Render(ctx context.Context, h *manifest.Handle, name string, data map[string]any, fields Fields, queries []string) (string, error) {
	m := h.Manifest(ctx)

	artifact, err := m.Executable(Name(name, m.Options().InputExt))
	if err != nil {
		return "", err
	}

	out, err := artifact(Assemble(data, fields, queries))
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return out, nil
}
