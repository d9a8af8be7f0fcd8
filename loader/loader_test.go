package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/lang/token"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileSingleSection(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.sylt", "x := 1\n")

	fset := token.NewFileSet()
	sections, src, err := LoadFile(path, fset)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Equal(t, path, sections[0].File)
	require.Equal(t, "x := 1\n", string(src))
}

func TestLoadManifestConcatenatesSectionsPreservingLineFlow(t *testing.T) {
	dir := t.TempDir()
	aPath := writeFile(t, dir, "a.sylt", "x := 1\ny := 2\n")
	bPath := writeFile(t, dir, "b.sylt", "z := 3\n")

	m := &Manifest{Sections: []SectionEntry{
		{Path: aPath},
		{Path: bPath, Externs: []string{"len"}},
	}}

	fset := token.NewFileSet()
	sections, src, err := Load(m, fset)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	require.Equal(t, 1, sections[0].StartLine)
	require.Equal(t, 3, sections[1].StartLine)
	require.Equal(t, []string{"len"}, sections[1].Externs)

	require.Equal(t, "x := 1\ny := 2\nz := 3\n", string(src))

	require.Equal(t, aPath, fset.File(1).Name())
	require.Equal(t, aPath, fset.File(2).Name())
	require.Equal(t, bPath, fset.File(3).Name())
}

func TestLoadManifestFromYAML(t *testing.T) {
	dir := t.TempDir()
	srcPath := writeFile(t, dir, "main.sylt", "print 1\n")
	manifestPath := writeFile(t, dir, "manifest.yaml", "sections:\n  - path: "+srcPath+"\n")

	m, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	require.Len(t, m.Sections, 1)
	require.Equal(t, srcPath, m.Sections[0].Path)
}

func TestLoadManifestRejectsEmptySections(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "manifest.yaml", "sections: []\n")

	_, err := LoadManifest(manifestPath)
	require.Error(t, err)
}
