package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func writeIntentFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_ParsesAssertionsAndExpectations(t *testing.T) {
	t.Parallel()

	path := writeIntentFile(t, t.TempDir(), "pipeline.yaml", `---
name: scraper-pipeline-output
assertions:
  - name: result-artifact-written
    kind: object-exists
    target: gs://my-artifacts/out/result.json
  - name: no-function-errors
    kind: log-absent
    target: function:scraper-pipeline
    expect:
      severity: ERROR
      window: 30m
  - name: article-count
    kind: count-in-range
    target: gs://my-artifacts/articles/
    expect:
      min_count: 5
      max_count: 100
`)

	in, err := NewLoader(logrus.New()).Load(path)
	require.NoError(t, err)

	require.Equal(t, "scraper-pipeline-output", in.Name)
	require.Len(t, in.Assertions, 3)

	require.Equal(t, KindObjectExists, in.Assertions[0].Kind)
	require.Nil(t, in.Assertions[0].Expect)

	require.Equal(t, KindLogAbsent, in.Assertions[1].Kind)
	require.Equal(t, "ERROR", in.Assertions[1].Expect.Severity)

	require.Equal(t, 5, *in.Assertions[2].Expect.MinCount)
	require.Equal(t, 100, *in.Assertions[2].Expect.MaxCount)
}

func TestLoad_InvalidIntentFails(t *testing.T) {
	t.Parallel()

	path := writeIntentFile(t, t.TempDir(), "bad.yaml", `---
name: bad
assertions:
  - name: a
    kind: telepathy
    target: gs://b/p
`)

	_, err := NewLoader(logrus.New()).Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown kind")
}

func TestLoadDir_SkipsInvalidFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeIntentFile(t, dir, "good.yaml", `---
name: good
assertions:
  - name: artifact
    kind: object-exists
    target: gs://b/out/
`)
	writeIntentFile(t, dir, "broken.yaml", `{{not yaml`)
	writeIntentFile(t, dir, "notes.txt", "ignored")

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	intents, err := NewLoader(log).LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, intents, 1)
	require.Contains(t, intents, "good")
}
