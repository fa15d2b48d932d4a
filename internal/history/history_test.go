// SPDX-License-Identifier: MIT

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofront/cogtune/internal/probe"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func report(url string, at time.Time, outcome probe.Status) *probe.Report {
	return &probe.Report{
		URL:       url,
		CheckedAt: at,
		Outcome:   outcome,
		Checks:    []probe.Check{{Name: "range-requests", Status: outcome}},
	}
}

func TestStore_PutAndRecent(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.Put(report("https://a/x.tif", now.Add(-2*time.Hour), probe.StatusFail)))
	require.NoError(t, s.Put(report("https://a/x.tif", now.Add(-time.Hour), probe.StatusWarn)))
	require.NoError(t, s.Put(report("https://a/x.tif", now, probe.StatusPass)))
	require.NoError(t, s.Put(report("https://b/y.tif", now, probe.StatusPass)))

	got, err := s.Recent("https://a/x.tif", 10)
	require.NoError(t, err)
	require.Len(t, got, 3, "reports for other URLs must not leak in")

	// Newest first.
	assert.Equal(t, probe.StatusPass, got[0].Outcome)
	assert.Equal(t, probe.StatusWarn, got[1].Outcome)
	assert.Equal(t, probe.StatusFail, got[2].Outcome)
}

func TestStore_RecentLimit(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(report("https://a/x.tif", now.Add(time.Duration(i)*time.Minute), probe.StatusPass)))
	}

	got, err := s.Recent("https://a/x.tif", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_RecentEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Recent("https://never-probed/x.tif", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_LastCheckedAt(t *testing.T) {
	s := openTestStore(t)

	last, err := s.LastCheckedAt()
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	now := time.Now().UTC()
	require.NoError(t, s.Put(report("https://a/x.tif", now.Add(-time.Hour), probe.StatusPass)))
	require.NoError(t, s.Put(report("https://b/y.tif", now, probe.StatusPass)))

	last, err = s.LastCheckedAt()
	require.NoError(t, err)
	assert.WithinDuration(t, now, last, time.Second)
}

func TestStore_Prune(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.Put(report("https://a/x.tif", now.Add(-48*time.Hour), probe.StatusPass)))
	require.NoError(t, s.Put(report("https://a/x.tif", now, probe.StatusPass)))

	removed, err := s.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := s.Recent("https://a/x.tif", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, now, got[0].CheckedAt, time.Second)
}
