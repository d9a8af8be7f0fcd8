// Package loader implements sylt's multi-section source file loading: a
// program's source is one or more "sections" concatenated with newlines
// preserved, with line numbers flowing through a single global line space
// so compiler errors still report the original per-section file and line.
package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sylt-lang/sylt/lang/token"
)

// Manifest lists, in order, the section files one sylt program is composed
// of, plus the extern-function names each section is allowed to reference.
// A bare source path with no manifest is the common case: a single
// implicit section covering the whole file.
type Manifest struct {
	Sections []SectionEntry `yaml:"sections"`
}

// SectionEntry names one section file and its allowed externs.
type SectionEntry struct {
	Path    string   `yaml:"path"`
	Externs []string `yaml:"externs,omitempty"`
}

// Section is one loaded, tokenizable unit of source.
type Section struct {
	File      string
	StartLine int // this section's first line in the FileSet's global line space
	Source    []byte
	Externs   []string // nil means "no restriction beyond the program-wide extern table"
}

// LoadManifest reads and decodes a YAML manifest describing a multi-section
// program.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("loader: parsing manifest %s: %w", path, err)
	}
	if len(m.Sections) == 0 {
		return nil, fmt.Errorf("loader: manifest %s declares no sections", path)
	}
	return &m, nil
}

// Load reads every section named by m in order, concatenating their source
// (separated by a single newline so line numbers keep flowing across
// section boundaries) and recording each section's file/line span in fset,
// threading multiple files through one token position space: "one section
// per program region" rather than "one file per compile".
func Load(m *Manifest, fset *token.FileSet) ([]Section, []byte, error) {
	var out []Section
	var buf strings.Builder

	line := 1
	for _, se := range m.Sections {
		raw, err := os.ReadFile(se.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("loader: reading section %s: %w", se.Path, err)
		}
		// the number of lines this section occupies in the concatenated
		// source, where a missing final newline is supplied below
		numLines := strings.Count(string(raw), "\n")
		if !strings.HasSuffix(string(raw), "\n") {
			numLines++
		}
		fset.AddFile(se.Path, numLines)

		out = append(out, Section{File: se.Path, StartLine: line, Source: raw, Externs: se.Externs})
		buf.Write(raw)
		if !strings.HasSuffix(string(raw), "\n") {
			buf.WriteByte('\n')
		}
		line += numLines
	}

	return out, []byte(buf.String()), nil
}

// LoadFile loads a single bare source file as a one-section program — the
// common case when no manifest is involved.
func LoadFile(path string, fset *token.FileSet) ([]Section, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loader: reading %s: %w", path, err)
	}
	numLines := strings.Count(string(raw), "\n") + 1
	fset.AddFile(path, numLines)
	return []Section{{File: path, StartLine: 1, Source: raw}}, raw, nil
}
