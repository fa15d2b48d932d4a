// SPDX-License-Identifier: MIT

package sentinel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSceneID(t *testing.T) {
	id, err := ParseSceneID("S2A_29RKH_20200219_0_L2A")
	require.NoError(t, err)

	assert.Equal(t, "2", id.Sensor)
	assert.Equal(t, "A", id.Satellite)
	assert.Equal(t, "29", id.UTMZone)
	assert.Equal(t, "R", id.LatitudeBand)
	assert.Equal(t, "KH", id.GridSquare)
	assert.Equal(t, "2020", id.AcquisitionYear)
	assert.Equal(t, "02", id.AcquisitionMonth)
	assert.Equal(t, "19", id.AcquisitionDay)
	assert.Equal(t, "0", id.Num)
	assert.Equal(t, "L2A", id.ProcessingLevel)
}

func TestParseSceneID_SingleDigitZone(t *testing.T) {
	id, err := ParseSceneID("S2B_7VEG_20210101_1_L2A")
	require.NoError(t, err)
	assert.Equal(t, "7", id.UTMZone)
	assert.Equal(t, "B", id.Satellite)
}

func TestParseSceneID_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"S2A_29RKH_20200219_0",       // missing level
		"S3A_29RKH_20200219_0_L2A",   // not sentinel-2
		"S2A_29rkh_20200219_0_L2A",   // lowercase grid
		"S2A_29RKH_2020021_0_L2A",    // short date
		"LC08_L1TP_139045_20170304",  // landsat
	} {
		_, err := ParseSceneID(in)
		assert.ErrorIs(t, err, ErrInvalidSceneID, "input %q", in)
	}
}

func TestSceneIDFields(t *testing.T) {
	id, err := ParseSceneID("S2A_09RKH_20200219_0_L2A")
	require.NoError(t, err)

	fields := id.Fields()
	assert.Equal(t, "09", fields["utm"])
	assert.Equal(t, "9", fields["_utm"])
	assert.Equal(t, "2", fields["_month"])
	assert.Equal(t, "l2a", fields["_levelLow"])
}

func TestCOGID(t *testing.T) {
	id, err := ParseSceneID("S2A_09RKH_20200219_0_L2A")
	require.NoError(t, err)
	assert.Equal(t, "S2A_9RKH_20200219_0_L2A", id.COGID())
}

func TestExpandTemplate(t *testing.T) {
	id, err := ParseSceneID("S2A_29RKH_20200219_0_L2A")
	require.NoError(t, err)

	got, err := ExpandTemplate(DefaultPrefixTemplate, id.Fields())
	require.NoError(t, err)
	assert.Equal(t, "sentinel-s2-l2a-cogs/29/R/KH/2020/2", got)
}

func TestExpandTemplate_UnknownField(t *testing.T) {
	_, err := ExpandTemplate("{nope}/{_utm}", map[string]string{"_utm": "29"})
	assert.ErrorIs(t, err, ErrUnknownTemplateField)
}
