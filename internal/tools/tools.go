// Package tools holds the quick dispatch calculators offered from the tools
// popup. Each tool is a pure function of its form values.
package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldKind selects the input widget for a field.
type FieldKind int

const (
	Number FieldKind = iota
	Choice
	Clock
)

// Field is one form input.
type Field struct {
	Key         string
	Label       string
	Kind        FieldKind
	Default     string
	Placeholder string
	Options     []string // Choice only
}

// Verdict summarises a result.
type Verdict int

const (
	Info Verdict = iota
	OK
	Warn
	Fail
)

func (v Verdict) String() string {
	switch v {
	case OK:
		return "ok"
	case Warn:
		return "warn"
	case Fail:
		return "fail"
	default:
		return "info"
	}
}

// Line is a labelled result value.
type Line struct {
	Label string
	Value string
}

// Result is a tool's answer.
type Result struct {
	Verdict Verdict
	Summary string
	Lines   []Line
	Notes   []string
}

func (r *Result) add(label, format string, args ...any) {
	r.Lines = append(r.Lines, Line{Label: label, Value: fmt.Sprintf(format, args...)})
}

// Tool is a quick calculator.
type Tool interface {
	ID() string
	Name() string
	Icon() string
	Description() string
	Fields() []Field
	Run(values map[string]string) (Result, error)
}

// All returns the tools in popup order.
func All() []Tool {
	return []Tool{
		DriversHours{},
		RateCalculator{},
		NewTimeZoneConverter(nil),
		TachographChecker{},
	}
}

// Lookup returns the tool with the given id.
func Lookup(id string) (Tool, bool) {
	for _, t := range All() {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}

// Defaults returns the default value of every field of t.
func Defaults(t Tool) map[string]string {
	out := make(map[string]string)
	for _, f := range t.Fields() {
		out[f.Key] = f.Default
	}
	return out
}

// form reads typed values, falling back to field defaults.
type form struct {
	fields map[string]Field
	values map[string]string
}

func newForm(t Tool, values map[string]string) form {
	fields := make(map[string]Field)
	for _, f := range t.Fields() {
		fields[f.Key] = f
	}
	return form{fields: fields, values: values}
}

func (f form) raw(key string) string {
	if v := strings.TrimSpace(f.values[key]); v != "" {
		return v
	}
	return f.fields[key].Default
}

func (f form) number(key string) (float64, error) {
	raw := f.raw(key)
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", f.fields[key].Label, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", f.fields[key].Label)
	}
	return n, nil
}

func (f form) choice(key string) (string, error) {
	raw := f.raw(key)
	for _, o := range f.fields[key].Options {
		if strings.EqualFold(o, raw) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%s: %q is not one of %s", f.fields[key].Label, raw, strings.Join(f.fields[key].Options, ", "))
}

// hm formats fractional hours as "9h 30m".
func hm(hours float64) string {
	neg := hours < 0
	if neg {
		hours = -hours
	}
	mins := int(hours*60 + 0.5)
	s := fmt.Sprintf("%dh %02dm", mins/60, mins%60)
	if neg {
		return "-" + s
	}
	return s
}
