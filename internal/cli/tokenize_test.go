package cli_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/internal/cli"
	"github.com/sylt-lang/sylt/internal/filetest"
)

var testUpdateTokenizeTests = flag.Bool("test.update-tokenize-tests", false, "If set, replace expected tokenize test results with actual results.")

func TestTokenize(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".sylt") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf}

			c := &cli.Cmd{}
			err := c.Tokenize(context.Background(), stdio, []string{filepath.Join(srcDir, fi.Name())})
			require.NoError(t, err)

			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateTokenizeTests)
		})
	}
}
