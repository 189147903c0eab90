package course

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedFormat is the newest course file format this build reads.
const SupportedFormat = "v1.0"

// ErrSchemaVersion is returned for course files in a format this build
// cannot read.
var ErrSchemaVersion = errors.New("unsupported course format")

//go:embed schema.json
var schemaJSON []byte

//go:embed default.yaml
var defaultYAML []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse course schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema://course.json", doc); err != nil {
		return nil, fmt.Errorf("add course schema: %w", err)
	}
	return c.Compile("schema://course.json")
})

var defaultCourse = sync.OnceValues(func() (*Course, error) {
	return Parse(defaultYAML, "")
})

// Default returns the built-in freight dispatch course. Callers must not
// modify it; use Clone first.
func Default() *Course {
	c, err := defaultCourse()
	if err != nil {
		panic(fmt.Sprintf("course: built-in course is invalid: %v", err))
	}
	return c
}

// Clone returns a deep copy of c.
func (c *Course) Clone() *Course {
	data, err := json.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("course: clone: %v", err))
	}
	var out Course
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("course: clone: %v", err))
	}
	out.Source = c.Source
	return &out
}

// Parse decodes and validates a YAML course. source names the file in
// error messages.
func Parse(data []byte, source string) (*Course, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: decode yaml: %w", label(source), err)
	}
	if err := validateRaw(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", label(source), err)
	}

	var c Course
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: decode course: %w", label(source), err)
	}
	if err := CheckFormat(c.Format); err != nil {
		return nil, fmt.Errorf("%s: %w", label(source), err)
	}
	if err := c.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", label(source), err)
	}
	c.Source = source
	return &c, nil
}

// Load reads and parses one course file.
func Load(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course: %w", err)
	}
	return Parse(data, path)
}

// LoadGlob loads every file matching the doublestar patterns, in path
// order. Duplicate course IDs are an error.
func LoadGlob(patterns []string) ([]*Course, error) {
	var paths []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	var courses []*Course
	seen := make(map[string]string)
	for _, p := range paths {
		c, err := Load(p)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("course %q defined in both %s and %s", c.ID, prev, p)
		}
		seen[c.ID] = p
		courses = append(courses, c)
	}
	return courses, nil
}

// CheckFormat accepts v1 formats no newer than SupportedFormat.
func CheckFormat(format string) error {
	if !semver.IsValid(format) {
		return fmt.Errorf("%w: %q is not a version", ErrSchemaVersion, format)
	}
	if semver.Major(format) != semver.Major(SupportedFormat) {
		return fmt.Errorf("%w: %s (this build reads %s.x)", ErrSchemaVersion, format, semver.Major(SupportedFormat))
	}
	if semver.Compare(semver.MajorMinor(format), SupportedFormat) > 0 {
		return fmt.Errorf("%w: %s is newer than %s", ErrSchemaVersion, format, SupportedFormat)
	}
	return nil
}

// validateRaw checks a decoded YAML document against the course schema.
// The document is round-tripped through JSON so number and map types match
// what the validator expects.
func validateRaw(raw any) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode for validation: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode for validation: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func label(source string) string {
	if source == "" {
		return "built-in course"
	}
	return filepath.Base(source)
}
