// Package manifest loads YAML suite manifests and turns them into suites of
// command tests.
//
// A manifest is validated against an embedded JSON Schema before it is
// decoded. Each test runs one command; it passes when the command exits with
// the expected status (0 unless expect_exit says otherwise). Groups become
// nested suites and pass their env and dir down to their members.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/testorch/internal/errors"
)

//go:embed manifest.schema.json
var schemaData []byte

const schemaName = "manifest.schema.json"

var (
	compiled    *jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

// TestSpec describes one command test.
type TestSpec struct {
	Name    string            `yaml:"name"`
	Command []string          `yaml:"command"`
	Env     map[string]string `yaml:"env,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	// ExpectExit is the expected exit status. Nil means 0.
	ExpectExit *int `yaml:"expect_exit,omitempty"`
}

// Group is a named collection of tests and nested groups.
type Group struct {
	Name   string            `yaml:"name"`
	Env    map[string]string `yaml:"env,omitempty"`
	Dir    string            `yaml:"dir,omitempty"`
	Tests  []TestSpec        `yaml:"tests,omitempty"`
	Groups []Group           `yaml:"groups,omitempty"`
}

// Manifest is the root group of a suite file.
type Manifest struct {
	Group `yaml:",inline"`
	// Path is the file the manifest was read from, if any.
	Path string `yaml:"-"`
}

// Load reads, validates and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.ManifestError{Path: path, Cause: err}
	}
	return Parse(data, path)
}

// Parse validates and decodes manifest data. path is only used in errors.
func Parse(data []byte, path string) (*Manifest, error) {
	if err := Validate(data); err != nil {
		return nil, apperrors.ManifestError{Path: path, Cause: err}
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, apperrors.ManifestError{Path: path, Cause: err}
	}
	m.Path = path
	return &m, nil
}

// Validate checks YAML data against the manifest schema.
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if raw == nil {
		return apperrors.ValidationError{Field: "manifest", Message: "document is empty"}
	}
	// Round-trip through JSON so the validator sees JSON types only.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("convert manifest to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("convert manifest to JSON: %w", err)
	}
	if err := compiled.Validate(inst); err != nil {
		return fmt.Errorf("manifest validation failed: %w", err)
	}
	return nil
}

// compileSchema compiles the embedded schema once.
func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal manifest schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaName, doc); err != nil {
			compileErr = fmt.Errorf("add manifest schema resource: %w", err)
			return
		}
		compiled, err = compiler.Compile(schemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile manifest schema: %w", err)
		}
	})
	return compileErr
}

// CountTests returns the number of command tests in g and its subgroups.
func (g Group) CountTests() int {
	n := len(g.Tests)
	for _, sub := range g.Groups {
		n += sub.CountTests()
	}
	return n
}
