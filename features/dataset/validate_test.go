package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodLine = `{"turns":[{"role":"system","content":"Du er en assistent."},{"role":"user","content":"Hva er MVA?"},{"role":"assistant","content":"Merverdiavgift."}],"metadata":{"domain":"vat","task":"qa","source_ids":["s1"],"family_key":"%s","split":"%s","locale":"nb-NO"}}`

func line(family, split string) string {
	return fmt.Sprintf(goodLine, family, split)
}

func writeLines(t *testing.T, dir, split, name string, lines ...string) {
	t.Helper()
	path := SplitPath(dir, split, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestValidate_Clean(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, SplitTrain, "demo", line("a", SplitTrain), line("a", SplitTrain))
	writeLines(t, dir, SplitVal, "demo", line("b", SplitVal))

	report, err := Validate(dir)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%v", report.Issues)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 3, report.Samples)
}

func TestValidate_DetectsProblems(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, SplitTrain, "demo",
		line("shared", SplitTrain),
		`{not json`,
		line("x", SplitVal),
		`{"turns":[{"role":"user","content":"Hei"}],"metadata":{"source_ids":["s"],"family_key":"y","split":"train"}}`,
	)
	writeLines(t, dir, SplitVal, "demo", line("shared", SplitVal))

	report, err := Validate(dir)
	require.NoError(t, err)
	assert.False(t, report.OK())

	var messages []string
	for _, is := range report.Issues {
		messages = append(messages, is.String())
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, "invalid json")
	assert.Contains(t, joined, `split is "val", file is in train`)
	assert.Contains(t, joined, "invalid sample")
	assert.Contains(t, joined, `family "shared" appears in both train and val`)
}

func TestValidate_EmptyDir(t *testing.T) {
	report, err := Validate(t.TempDir())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Zero(t, report.Files)
}
