// Package treefmt renders arbitrary nested maps and slices as indented plain
// text lines, one entry per line, without bracket or brace lines.
//
// Nesting is shown only by the indent prefix: Base followed by one Step per
// level. Mappings print one `"key": value` line per entry, sequences print an
// `[i]:` header per element, and empty containers print nothing at all.
package treefmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"stockbar/pkg/utils"
)

// Options controls indentation and wrapping.
type Options struct {
	Base     string
	Step     string
	SortKeys bool

	// WrapWidth enables wrapping of long value tokens; 0 disables it.
	WrapWidth int
	// ValueOnNextLine moves a long value onto its own line one level deeper
	// instead of wrapping it together with its key.
	ValueOnNextLine bool
	// WrapStringsOnly restricts key/value wrapping to string values.
	WrapStringsOnly bool
}

// DefaultOptions returns the submenu-style indentation used in menu output.
func DefaultOptions() Options {
	return Options{
		Base:            "------",
		Step:            "--",
		SortKeys:        true,
		WrapStringsOnly: true,
	}
}

type shape int

const (
	scalarShape shape = iota
	sequenceShape
	mappingShape
)

// Format renders v as lines.
func Format(v any, opts Options) []string {
	f := &formatter{opts: opts}
	f.walk(v, 0)
	return f.lines
}

// String renders v as a single newline-joined string.
func String(v any, opts Options) string {
	return strings.Join(Format(v, opts), "\n")
}

type formatter struct {
	opts  Options
	lines []string
}

func (f *formatter) prefix(level int) string {
	return f.opts.Base + strings.Repeat(f.opts.Step, level)
}

func (f *formatter) walk(v any, level int) {
	kind, seq, m := classify(v)
	switch kind {
	case mappingShape:
		for _, k := range f.keys(m) {
			f.keyValue(k, m[k], level)
		}
	case sequenceShape:
		for i, item := range seq {
			if isEmptyContainer(item) {
				continue
			}
			f.lines = append(f.lines, fmt.Sprintf("%s[%d]:", f.prefix(level), i))
			f.walk(item, level+1)
		}
	default:
		f.wrapped(level, token(v))
	}
}

func (f *formatter) keyValue(k string, v any, level int) {
	key := token(k)

	if kind, _, _ := classify(v); kind != scalarShape {
		if isEmptyContainer(v) {
			return
		}
		f.lines = append(f.lines, f.prefix(level)+key+":")
		f.walk(v, level+1)
		return
	}

	value := token(v)
	switch {
	case f.shouldWrap(v, value) && f.opts.ValueOnNextLine:
		f.lines = append(f.lines, f.prefix(level)+key+":")
		f.wrapped(level+1, value)
	case f.shouldWrap(v, value):
		f.wrapped(level, key+": "+value)
	default:
		f.lines = append(f.lines, f.prefix(level)+key+": "+value)
	}
}

// wrapped emits tok at level, continuation lines keep the same level.
func (f *formatter) wrapped(level int, tok string) {
	if f.opts.WrapWidth <= 0 || utf8.RuneCountInString(tok) <= f.opts.WrapWidth {
		f.lines = append(f.lines, f.prefix(level)+tok)
		return
	}
	for _, chunk := range utils.Wrap(tok, f.opts.WrapWidth) {
		f.lines = append(f.lines, f.prefix(level)+chunk)
	}
}

func (f *formatter) shouldWrap(v any, tok string) bool {
	if f.opts.WrapWidth <= 0 {
		return false
	}
	if _, ok := v.(string); !ok && f.opts.WrapStringsOnly {
		return false
	}
	return utf8.RuneCountInString(tok) > f.opts.WrapWidth
}

func (f *formatter) keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if f.opts.SortKeys {
		sort.Strings(keys)
	}
	return keys
}

// classify sorts v into one of the three shapes the formatter understands.
// Common concrete Go containers are widened to []any / map[string]any.
func classify(v any) (shape, []any, map[string]any) {
	switch x := v.(type) {
	case map[string]any:
		return mappingShape, nil, x
	case []any:
		return sequenceShape, x, nil
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}
		return mappingShape, nil, m
	case map[string]float64:
		m := make(map[string]any, len(x))
		for k, n := range x {
			m[k] = n
		}
		return mappingShape, nil, m
	case []map[string]any:
		return sequenceShape, widen(x), nil
	case []string:
		return sequenceShape, widen(x), nil
	case []float64:
		return sequenceShape, widen(x), nil
	case []int:
		return sequenceShape, widen(x), nil
	case []int64:
		return sequenceShape, widen(x), nil
	default:
		return scalarShape, nil, nil
	}
}

func isEmptyContainer(v any) bool {
	kind, seq, m := classify(v)
	return kind != scalarShape && len(seq) == 0 && len(m) == 0
}

func widen[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// token renders a scalar as its JSON literal. Values outside the JSON scalar
// set are rendered as a quoted string of their default format.
func token(v any) string {
	switch v.(type) {
	case nil, string, bool,
		float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
	default:
		v = fmt.Sprint(v)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
