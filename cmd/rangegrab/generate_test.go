package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/rangegrab"
	main "github.com/fwojciec/rangegrab/cmd/rangegrab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMain(t *testing.T, m *main.Main, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), args, stdout, stderr)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGenerateCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints one name per item by default", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runMain(t, main.NewMain(), "generate", "1", "3")

		require.NoError(t, err)
		assert.Equal(t, "1\n2\n3\n", stdout)
	})

	t.Run("groups items into capped ranges with the current alphabet", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runMain(t, main.NewMain(), "generate", "0", "10", "--range", "4")

		require.NoError(t, err)
		assert.Equal(t, "0:3\n4:7\n8:a\n", stdout)
	})

	t.Run("splits ranges at base 10 exclusions with the legacy alphabet", func(t *testing.T) {
		t.Parallel()

		excl := writeFile(t, t.TempDir(), "exclude.txt", "5\n\n")

		stdout, _, err := runMain(t, main.NewMain(), "generate", "0", "10",
			"--range", "100", "--legacy-alphabet", "--exclusion-file", excl)

		require.NoError(t, err)
		assert.Equal(t, "0,4\n6,A\n", stdout)
	})

	t.Run("reads encoded exclusions in the selected alphabet", func(t *testing.T) {
		t.Parallel()

		excl := writeFile(t, t.TempDir(), "exclude62.txt", "a\n")

		stdout, _, err := runMain(t, main.NewMain(), "generate", "0", "12",
			"--range", "100", "--exclusion-file-62", excl)

		require.NoError(t, err)
		assert.Equal(t, "0:9\nb:c\n", stdout)
	})

	t.Run("prints a single code for a one item range", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runMain(t, main.NewMain(), "generate", "7", "7", "--range", "13")

		require.NoError(t, err)
		assert.Equal(t, "7\n", stdout)
	})

	for _, r := range []string{"0", "101"} {
		t.Run("rejects range "+r+" before printing anything", func(t *testing.T) {
			t.Parallel()

			stdout, stderr, err := runMain(t, main.NewMain(), "generate", "0", "10", "--range", r)

			assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "range should be positive")
		})
	}

	t.Run("rejects a start after the end", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runMain(t, main.NewMain(), "generate", "10", "0")

		assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
		assert.Empty(t, stdout)
	})

	t.Run("rejects a non-numeric bound", func(t *testing.T) {
		t.Parallel()

		_, _, err := runMain(t, main.NewMain(), "generate", "x", "10")

		assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
	})

	t.Run("rejects an unparsable exclusion line", func(t *testing.T) {
		t.Parallel()

		excl := writeFile(t, t.TempDir(), "exclude.txt", "5\nfive\n")

		_, _, err := runMain(t, main.NewMain(), "generate", "0", "10", "--exclusion-file", excl)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}
