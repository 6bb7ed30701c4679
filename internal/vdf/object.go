package vdf

import (
	"fmt"
	"strings"
)

// Object is an ordered VDF section. Unlike the maps produced by Parse, an
// Object preserves the order keys were set in, which generated artifacts
// like appmanifest files require.
type Object struct {
	pairs []pair
}

type pair struct {
	key   string
	value interface{} // string scalar or *Object
}

// NewObject returns an empty ordered section.
func NewObject() *Object {
	return &Object{}
}

// Set appends or replaces a scalar field. Non-string scalars are formatted
// with fmt, matching how Steam stores numbers as quoted strings.
func (o *Object) Set(key string, value interface{}) *Object {
	return o.put(key, fmt.Sprintf("%v", value))
}

// SetObject appends or replaces a nested section.
func (o *Object) SetObject(key string, child *Object) *Object {
	return o.put(key, child)
}

func (o *Object) put(key string, value interface{}) *Object {
	for i := range o.pairs {
		if o.pairs[i].key == key {
			o.pairs[i].value = value
			return o
		}
	}
	o.pairs = append(o.pairs, pair{key: key, value: value})
	return o
}

// Len returns the number of entries in the section.
func (o *Object) Len() int {
	return len(o.pairs)
}

// Marshal serializes the object as a VDF document body.
func (o *Object) Marshal() []byte {
	var sb strings.Builder
	o.write(&sb, 0)
	return []byte(sb.String())
}

func (o *Object) write(sb *strings.Builder, level int) {
	indent := strings.Repeat("\t", level)
	for _, p := range o.pairs {
		switch v := p.value.(type) {
		case *Object:
			fmt.Fprintf(sb, "%s%s\n%s{\n", indent, quote(p.key), indent)
			v.write(sb, level+1)
			fmt.Fprintf(sb, "%s}\n", indent)
		default:
			fmt.Fprintf(sb, "%s%s\t\t%s\n", indent, quote(p.key), quote(fmt.Sprintf("%v", v)))
		}
	}
}
