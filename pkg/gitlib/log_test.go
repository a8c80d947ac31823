package gitlib_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docgap/pkg/gitlib"
	"github.com/Sumatoshi-tech/docgap/pkg/gitlib/gittest"
)

func TestLog_NewestFirstWithSince(t *testing.T) {
	t.Parallel()

	tr := gittest.New(t)
	tr.WriteFile("a.c", "1\n")
	tr.CommitAt("old", time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC))
	tr.WriteFile("a.c", "2\n")
	mid := tr.CommitAt("mid", time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC))
	tr.WriteFile("a.c", "3\n")
	newest := tr.CommitAt("new", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	repo, err := gitlib.OpenRepository(tr.Path())
	require.NoError(t, err)

	defer repo.Free()

	since := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	iter, err := repo.Log(&gitlib.LogOptions{Since: &since})
	require.NoError(t, err)

	var seen []gitlib.Hash

	err = iter.ForEach(func(c *gitlib.Commit) error {
		seen = append(seen, c.Hash())

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []gitlib.Hash{newest, mid}, seen)

	all, err := repo.Log(nil)
	require.NoError(t, err)

	count := 0

	require.NoError(t, all.ForEach(func(*gitlib.Commit) error {
		count++

		return nil
	}))
	assert.Equal(t, 3, count)
}

func TestLog_ForEachStopsOnError(t *testing.T) {
	t.Parallel()

	tr := gittest.New(t)
	tr.WriteFile("a.c", "1\n")
	tr.Commit("one")
	tr.WriteFile("a.c", "2\n")
	tr.Commit("two")

	repo, err := gitlib.OpenRepository(tr.Path())
	require.NoError(t, err)

	defer repo.Free()

	iter, err := repo.Log(nil)
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0

	err = iter.ForEach(func(*gitlib.Commit) error {
		calls++

		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)

	iter.Close()
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	got, err := gitlib.ParseTime("2023-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = gitlib.ParseTime("2024-02-03T04:05:06Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 3, 4, 5, 6, 0, time.UTC), got)

	got, err = gitlib.ParseTime("24h")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), got, time.Minute)

	_, err = gitlib.ParseTime("last tuesday")
	require.ErrorIs(t, err, gitlib.ErrInvalidTimeFormat)
}
