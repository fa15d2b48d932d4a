// SPDX-License-Identifier: MIT

package gdal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAndRestore(t *testing.T) {
	t.Setenv("VSI_CACHE", "FALSE")
	require.NoError(t, os.Unsetenv("GDAL_HTTP_MULTIPLEX"))

	snap := TakeSnapshot()

	p := &Profile{Name: "t", Vars: []Assignment{
		{Name: "VSI_CACHE", Value: "TRUE"},
		{Name: "GDAL_HTTP_MULTIPLEX", Value: "YES"},
	}}
	require.NoError(t, Apply(p))

	assert.Equal(t, "TRUE", os.Getenv("VSI_CACHE"))
	assert.Equal(t, "YES", os.Getenv("GDAL_HTTP_MULTIPLEX"))

	require.NoError(t, snap.Restore())

	assert.Equal(t, "FALSE", os.Getenv("VSI_CACHE"))
	_, set := os.LookupEnv("GDAL_HTTP_MULTIPLEX")
	assert.False(t, set, "restore must re-unset variables that were unset")
}

func TestApply_RejectsInvalidProfile(t *testing.T) {
	p := &Profile{Name: "bad", Vars: []Assignment{
		{Name: "VSI_CACHE", Value: "MAYBE"},
	}}
	err := Apply(p)
	require.Error(t, err)
}

func TestEffective_SourcePrecedence(t *testing.T) {
	env := map[string]string{
		"VSI_CACHE": "TRUE",
		"GDAL_DATA": "/usr/share/gdal",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	p := &Profile{Name: "t", Vars: []Assignment{
		{Name: "VSI_CACHE", Value: "FALSE"},
	}}

	rows := Effective(p, lookup)
	byName := make(map[string]EffectiveVar, len(rows))
	for _, r := range rows {
		byName[r.Name] = r
	}

	// Profile shadows environment.
	assert.Equal(t, SourceProfile, byName["VSI_CACHE"].Source)
	assert.Equal(t, "FALSE", byName["VSI_CACHE"].Value)

	// Environment shadows default.
	assert.Equal(t, SourceEnvironment, byName["GDAL_DATA"].Source)

	// Registry default when nothing else is set.
	assert.Equal(t, SourceDefault, byName["GDAL_INGESTED_BYTES_AT_OPEN"].Source)
	assert.Equal(t, "16384", byName["GDAL_INGESTED_BYTES_AT_OPEN"].Value)

	// No default, not set anywhere.
	assert.Equal(t, SourceUnset, byName["PROJ_LIB"].Source)
}

func TestDiff(t *testing.T) {
	env := map[string]string{"VSI_CACHE": "TRUE"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	p := &Profile{Name: "t", Vars: []Assignment{
		{Name: "VSI_CACHE", Value: "TRUE"},          // identical, omitted
		{Name: "GDAL_HTTP_MULTIPLEX", Value: "YES"}, // unset in env
	}}

	diff := Diff(p, lookup)
	require.Len(t, diff, 1)
	assert.Equal(t, "GDAL_HTTP_MULTIPLEX", diff[0].Name)
	assert.True(t, diff[0].WasUnset)
}
