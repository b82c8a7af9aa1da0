package main_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	main "github.com/fwojciec/rangegrab/cmd/rangegrab"
	"github.com/fwojciec/rangegrab/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpCmd(t *testing.T) {
	t.Parallel()

	t.Run("done prints every emitted item name", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Queue = &mock.Queue{
			DoneItemsFn: func(_ context.Context, emit func(string) error) error {
				for _, name := range []string{"a", "b", "c"} {
					if err := emit(name); err != nil {
						return err
					}
				}
				return nil
			},
		}

		stdout, _, err := runMain(t, m, "dump", "done", "puush")

		require.NoError(t, err)
		assert.Equal(t, "a\nb\nc\n", stdout)
	})

	t.Run("log passes the scrub flag through", func(t *testing.T) {
		t.Parallel()

		var scrubbed bool
		m := main.NewMain()
		m.Queue = &mock.Queue{
			LogEntriesFn: func(_ context.Context, scrubUser bool, emit func([]byte) error) error {
				scrubbed = scrubUser
				return emit([]byte(`{"by":"<scrubbed>"}`))
			},
		}

		stdout, _, err := runMain(t, m, "dump", "log", "puush", "--scrub-username")

		require.NoError(t, err)
		assert.True(t, scrubbed)
		assert.Equal(t, `{"by":"<scrubbed>"}`+"\n", stdout)
	})

	t.Run("log reports queue errors", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Queue = &mock.Queue{
			LogEntriesFn: func(_ context.Context, _ bool, _ func([]byte) error) error {
				return errors.New("redis down")
			},
		}

		_, _, err := runMain(t, m, "dump", "log", "puush")

		require.Error(t, err)
	})

	t.Run("archived-log scrubs a log file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "log.json",
			`{"item":"a:c","by":"alice","ip":"10.0.0.1","id":"{\"n\":3}"}`+"\n")

		stdout, _, err := runMain(t, main.NewMain(), "dump", "archived-log", path, "--scrub-username")

		require.NoError(t, err)
		assert.JSONEq(t, `{"item":"a:c","by":"<scrubbed>","ip":"<scrubbed>","id":{"n":3}}`, strings.TrimSpace(stdout))
	})
}

func TestExclusionsCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints the item name of every archive", func(t *testing.T) {
		t.Parallel()

		first := t.TempDir()
		second := t.TempDir()
		writeFile(t, first, "puush-abc-1400000000.warc.gz", "")
		writeFile(t, first, "puush-abd-1400000001.warc.gz", "")
		writeFile(t, first, "README", "")
		writeFile(t, second, "puush-xyz-1400000002.warc.gz", "")

		stdout, _, err := runMain(t, main.NewMain(), "exclusions", first, second)

		require.NoError(t, err)
		assert.Equal(t, "abc\nabd\nxyz\n", stdout)
	})

	t.Run("fails for a missing directory", func(t *testing.T) {
		t.Parallel()

		_, _, err := runMain(t, main.NewMain(), "exclusions", t.TempDir()+"/missing")

		require.Error(t, err)
	})
}
