// Package vdf reads and writes Valve's text key-value format (VDF/ACF).
//
// Parsing is delegated to github.com/andygrunwald/vdf, which produces
// nested map[string]interface{} values. That library has no serializer, so
// writing lives here: Marshal for parsed maps (deterministic, sorted keys)
// and Object for documents whose key order is a compatibility contract,
// such as generated appmanifest files.
package vdf

import (
	"fmt"
	"io"
	"sort"
	"strings"

	upstream "github.com/andygrunwald/vdf"
)

// Parse reads a VDF document into nested maps. Scalar values are strings;
// nested sections are map[string]interface{}.
func Parse(r io.Reader) (map[string]interface{}, error) {
	m, err := upstream.NewParser(r).Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse vdf: %w", err)
	}
	return m, nil
}

// Marshal serializes nested maps back to VDF text. Keys are emitted in
// sorted order; VDF readers are order-insensitive, and sorting keeps
// rewrites deterministic.
func Marshal(m map[string]interface{}) []byte {
	var sb strings.Builder
	writeMap(&sb, m, 0)
	return []byte(sb.String())
}

func writeMap(sb *strings.Builder, m map[string]interface{}, level int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	indent := strings.Repeat("\t", level)
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]interface{}:
			fmt.Fprintf(sb, "%s%s\n%s{\n", indent, quote(k), indent)
			writeMap(sb, v, level+1)
			fmt.Fprintf(sb, "%s}\n", indent)
		default:
			fmt.Fprintf(sb, "%s%s\t\t%s\n", indent, quote(k), quote(fmt.Sprintf("%v", v)))
		}
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// ChildMap descends through nested maps by key, returning nil when any
// step is missing or not a section.
func ChildMap(m map[string]interface{}, keys ...string) map[string]interface{} {
	current := m
	for _, k := range keys {
		next, ok := current[k].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// ChildMapFold is ChildMap with case-insensitive key lookup at each step.
// Steam writes "Valve"/"Steam" with inconsistent casing across installs.
func ChildMapFold(m map[string]interface{}, keys ...string) map[string]interface{} {
	current := m
	for _, k := range keys {
		var next map[string]interface{}
		for candidate, v := range current {
			if strings.EqualFold(candidate, k) {
				if section, ok := v.(map[string]interface{}); ok {
					next = section
					break
				}
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}
