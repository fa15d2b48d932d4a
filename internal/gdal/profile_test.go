// SPDX-License-Identifier: MIT

package gdal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("cog")
	require.NoError(t, err)
	assert.Equal(t, "cog", p.Name)

	v, ok := p.Get("GDAL_DISABLE_READDIR_ON_OPEN")
	require.True(t, ok)
	assert.Equal(t, "EMPTY_DIR", v)

	_, err = ProfileByName("turbo")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestProfileByNameReturnsCopy(t *testing.T) {
	p1, err := ProfileByName("cog")
	require.NoError(t, err)
	p1.Set("VSI_CACHE", "FALSE")

	p2, err := ProfileByName("cog")
	require.NoError(t, err)
	v, _ := p2.Get("VSI_CACHE")
	assert.Equal(t, "TRUE", v, "mutating a returned profile must not touch the builtin")
}

func TestProfileMerge(t *testing.T) {
	base, err := ProfileByName("cog")
	require.NoError(t, err)

	overlay := &Profile{Name: "overlay", Vars: []Assignment{
		{Name: "GDAL_CACHEMAX", Value: "512"},
		{Name: "GDAL_NUM_THREADS", Value: "4"},
	}}

	merged := base.Merge(overlay)

	v, _ := merged.Get("GDAL_CACHEMAX")
	assert.Equal(t, "512", v, "overlay wins")

	v, ok := merged.Get("GDAL_NUM_THREADS")
	require.True(t, ok, "overlay-only vars are appended")
	assert.Equal(t, "4", v)

	// Base untouched.
	v, _ = base.Get("GDAL_CACHEMAX")
	assert.Equal(t, "200", v)
}

func TestProfilesSorted(t *testing.T) {
	ps := Profiles()
	require.GreaterOrEqual(t, len(ps), 4)
	for i := 1; i < len(ps); i++ {
		assert.Less(t, ps[i-1].Name, ps[i].Name)
	}
}
