// SPDX-License-Identifier: MIT

package gdal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"YES", true, false},
		{"yes", true, false},
		{"TRUE", true, false},
		{"ON", true, false},
		{"1", true, false},
		{"NO", false, false},
		{"false", false, false},
		{"OFF", false, false},
		{"0", false, false},
		{" YES ", true, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		got, err := ParseBool(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseCacheMax(t *testing.T) {
	const gib = int64(1) << 30

	// Below the threshold: megabytes.
	got, err := ParseCacheMax("200", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(200*1024*1024), got)

	// At or above the threshold: bytes.
	got, err = ParseCacheMax("200000000", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(200000000), got)

	// Percentage of RAM.
	got, err = ParseCacheMax("5%", 8*gib)
	require.NoError(t, err)
	assert.Equal(t, 8*gib/20, got)

	// Percentage without a RAM size is rejected.
	_, err = ParseCacheMax("5%", 0)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseCacheMax("-1", 0)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseCacheMax("lots", 0)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParseExtList(t *testing.T) {
	got, err := ParseExtList(".tif, .TIF,.tiff")
	require.NoError(t, err)
	assert.Equal(t, []string{".tif", ".TIF", ".tiff"}, got)

	_, err = ParseExtList("")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseExtList(".tif,,.ovr")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestCheckValue(t *testing.T) {
	multiplex, ok := Lookup("GDAL_HTTP_MULTIPLEX")
	require.True(t, ok)
	assert.NoError(t, CheckValue(multiplex, "YES"))
	assert.Error(t, CheckValue(multiplex, "2"))
	assert.Error(t, CheckValue(multiplex, "PERHAPS"))

	readdir, ok := Lookup("GDAL_DISABLE_READDIR_ON_OPEN")
	require.True(t, ok)
	assert.NoError(t, CheckValue(readdir, "EMPTY_DIR"))
	assert.NoError(t, CheckValue(readdir, "empty_dir"))
	assert.Error(t, CheckValue(readdir, "SOMETIMES"))

	ingested, ok := Lookup("GDAL_INGESTED_BYTES_AT_OPEN")
	require.True(t, ok)
	assert.NoError(t, CheckValue(ingested, "32768"))
	assert.Error(t, CheckValue(ingested, "32k"))
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	v, ok := Lookup("vsi_cache")
	require.True(t, ok)
	assert.Equal(t, "VSI_CACHE", v.Name)
	assert.Equal(t, "bool", v.KindName)

	_, ok = Lookup("GDAL_MADE_UP")
	assert.False(t, ok)
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", MaskValue("AWS_SECRET_ACCESS_KEY", "hunter2"))
	assert.Equal(t, "", MaskValue("AWS_SECRET_ACCESS_KEY", ""))
	assert.Equal(t, "YES", MaskValue("VSI_CACHE", "YES"))
}
